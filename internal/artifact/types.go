package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/kennyg/persona-kit/internal/fileio"
)

// Kind identifies an asset class
type Kind string

const (
	KindPersona  Kind = "persona"
	KindPattern  Kind = "pattern"
	KindWorkflow Kind = "workflow"
)

// KindSpec describes how one kind is laid out on disk.
type KindSpec struct {
	Kind Kind
	// Dir is the directory under persona-kit/ holding the index and documents
	Dir string
	// MapName is the top-level key of the record map in the index file
	MapName string
	// Categorized kinds key records by category/type and nest documents by category
	Categorized bool
}

// IndexFile returns the index filename, e.g. personas.json
func (s KindSpec) IndexFile() string {
	return s.Dir + ".json"
}

var (
	PersonaSpec  = KindSpec{Kind: KindPersona, Dir: PersonasDirName, MapName: PersonasDirName}
	PatternSpec  = KindSpec{Kind: KindPattern, Dir: PatternsDirName, MapName: PatternsDirName, Categorized: true}
	WorkflowSpec = KindSpec{Kind: KindWorkflow, Dir: WorkflowsDirName, MapName: WorkflowsDirName}
)

// Key is the identity of a record within its kind. Category is empty for
// kinds that are not categorized.
type Key struct {
	Category string
	Type     string
}

// String returns the index key: "type" or "category/type".
func (k Key) String() string {
	if k.Category == "" {
		return k.Type
	}
	return k.Category + "/" + k.Type
}

// ParseKey parses an index key for a kind.
func ParseKey(s string, categorized bool) (Key, error) {
	if !categorized {
		if err := checkSegment(s); err != nil {
			return Key{}, fmt.Errorf("key %q: %w", s, err)
		}
		return Key{Type: s}, nil
	}

	category, typ, ok := strings.Cut(s, "/")
	if !ok {
		return Key{}, fmt.Errorf("key %q: want category/type", s)
	}
	if err := checkSegment(category); err != nil {
		return Key{}, fmt.Errorf("key %q: category: %w", s, err)
	}
	if err := checkSegment(typ); err != nil {
		return Key{}, fmt.Errorf("key %q: type: %w", s, err)
	}
	return Key{Category: category, Type: typ}, nil
}

// checkSegment rejects names that cannot be used as a single path element.
func checkSegment(s string) error {
	return fileio.CheckName(s)
}

// Record is implemented by every asset type stored in a Store.
type Record interface {
	// Key returns the identity of the record
	Key() Key
	// Title and Summary are the record's name and description
	Title() string
	Summary() string
	// Render returns the document for the record
	Render() string
	// Stamp sets the creation time and schema version before the record is stored
	Stamp(now time.Time)
}

// Header holds the fields every asset shares.
type Header struct {
	Type        string `json:"type" yaml:"type" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

func (h Header) Title() string   { return h.Name }
func (h Header) Summary() string { return h.Description }

// Meta holds bookkeeping fields written at creation.
type Meta struct {
	CreatedAt string `json:"created_at,omitempty" yaml:"-"`
	Version   string `json:"version,omitempty" yaml:"-"`
}

func (m *Meta) stamp(now time.Time) {
	m.CreatedAt = now.UTC().Format(time.RFC3339)
	m.Version = SchemaVersion
}

// Persona is a team member persona and its communication style.
type Persona struct {
	Header             `yaml:",inline"`
	CommunicationStyle string `json:"communication_style" yaml:"communication_style"`
	Responsibilities   string `json:"responsibilities" yaml:"responsibilities"`
	Goals              string `json:"goals" yaml:"goals"`
	DecisionApproach   string `json:"decision_approach" yaml:"decision_approach"`
	CommonPhrases      string `json:"common_phrases" yaml:"common_phrases"`
	Meta               `yaml:",inline"`
}

func (p *Persona) Key() Key            { return Key{Type: p.Type} }
func (p *Persona) Render() string      { return RenderPersona(p) }
func (p *Persona) Stamp(now time.Time) { p.Meta.stamp(now) }

// Pattern is a reusable communication or decision-making pattern.
type Pattern struct {
	Category         string `json:"category" yaml:"category" validate:"required"`
	Header           `yaml:",inline"`
	WhenToUse        string `json:"when_to_use" yaml:"when_to_use"`
	HowToApply       string `json:"how_to_apply" yaml:"how_to_apply"`
	ExpectedOutcomes string `json:"expected_outcomes" yaml:"expected_outcomes"`
	Examples         string `json:"examples" yaml:"examples"`
	Meta             `yaml:",inline"`
}

func (p *Pattern) Key() Key            { return Key{Category: p.Category, Type: p.Type} }
func (p *Pattern) Render() string      { return RenderPattern(p) }
func (p *Pattern) Stamp(now time.Time) { p.Meta.stamp(now) }

// Workflow is a development process made of ordered steps.
type Workflow struct {
	Header           `yaml:",inline"`
	Triggers         string   `json:"triggers" yaml:"triggers"`
	Steps            []string `json:"steps" yaml:"steps" validate:"min=1,dive,required"`
	RequiredRoles    string   `json:"required_roles" yaml:"required_roles"`
	ExpectedDuration string   `json:"expected_duration" yaml:"expected_duration"`
	SuccessCriteria  string   `json:"success_criteria" yaml:"success_criteria"`
	Meta             `yaml:",inline"`
}

func (w *Workflow) Key() Key            { return Key{Type: w.Type} }
func (w *Workflow) Render() string      { return RenderWorkflow(w) }
func (w *Workflow) Stamp(now time.Time) { w.Meta.stamp(now) }
