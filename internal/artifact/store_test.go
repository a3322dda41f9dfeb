package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newPatternStore(t *testing.T) *Store[*Pattern] {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "persona-kit", PatternsDirName)
	return NewStore[*Pattern](PatternSpec, dir,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
		WithLockFile(filepath.Join(filepath.Dir(dir), ".lock")),
	)
}

func newWorkflowStore(t *testing.T) *Store[*Workflow] {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "persona-kit", WorkflowsDirName)
	return NewStore[*Workflow](WorkflowSpec, dir,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func samplePattern() *Pattern {
	return &Pattern{
		Category:  "communication",
		Header:    Header{Type: "daily-standup", Name: "Standup", Description: "Daily sync"},
		WhenToUse: "Every morning",
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := newPatternStore(t)

	ix, warn := s.Load()
	if warn != nil {
		t.Errorf("Load() warning = %v, want nil", warn)
	}
	if ix == nil || ix.Len() != 0 {
		t.Fatalf("Load() = %+v, want empty index", ix)
	}
	if ix.Version != SchemaVersion {
		t.Errorf("Version = %q, want %q", ix.Version, SchemaVersion)
	}
}

func TestStore_LoadMalformed(t *testing.T) {
	s := newPatternStore(t)
	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.IndexPath(), []byte(`{"patterns": [1, 2`), 0644); err != nil {
		t.Fatal(err)
	}

	ix, warn := s.Load()
	if !errors.Is(warn, ErrMalformedData) {
		t.Errorf("Load() warning = %v, want ErrMalformedData", warn)
	}
	if ix == nil || ix.Len() != 0 || ix.Version != SchemaVersion {
		t.Errorf("Load() = %+v, want empty default index", ix)
	}
}

func TestStore_LoadWrongShape(t *testing.T) {
	s := newPatternStore(t)
	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.IndexPath(), []byte(`{"patterns": ["not", "a", "map"]}`), 0644); err != nil {
		t.Fatal(err)
	}

	ix, warn := s.Load()
	if !errors.Is(warn, ErrMalformedData) {
		t.Errorf("Load() warning = %v, want ErrMalformedData", warn)
	}
	if ix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ix.Len())
	}
}

func TestStore_SaveShape(t *testing.T) {
	s := newPatternStore(t)
	ix := NewIndex[*Pattern]()
	ix.Put(samplePattern())

	if err := s.Save(ix); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(s.IndexPath())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("index is not JSON: %v", err)
	}
	if string(raw["version"]) != `"1.0"` {
		t.Errorf("version = %s, want \"1.0\"", raw["version"])
	}
	var entries map[string]map[string]any
	if err := json.Unmarshal(raw["patterns"], &entries); err != nil {
		t.Fatalf("patterns map: %v", err)
	}
	entry, ok := entries["communication/daily-standup"]
	if !ok {
		t.Fatalf("entries = %v, want communication/daily-standup", entries)
	}
	if entry["category"] != "communication" || entry["type"] != "daily-standup" || entry["when_to_use"] != "Every morning" {
		t.Errorf("entry = %v", entry)
	}
}

func TestStore_PutSaveRenderValidate(t *testing.T) {
	s := newPatternStore(t)
	p := samplePattern()

	ix, _ := s.Load()
	ix.Put(p)
	if err := s.Save(ix); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.RenderAndPersist(p); err != nil {
		t.Fatalf("RenderAndPersist() error = %v", err)
	}

	want := filepath.Join(s.Dir(), "communication", "daily-standup.md")
	if got := s.DocumentPath(p.Key()); got != want {
		t.Errorf("DocumentPath() = %q, want %q", got, want)
	}
	if !s.Exists(p.Key()) {
		t.Error("Exists() = false after RenderAndPersist")
	}

	loaded, warn := s.Load()
	if warn != nil {
		t.Fatalf("Load() warning = %v", warn)
	}
	report := s.Validate(loaded)
	if len(report.Records) != 1 {
		t.Fatalf("Records len = %d, want 1", len(report.Records))
	}
	if rs := report.Records[0]; rs.Status != StatusValid || !rs.Document {
		t.Errorf("record status = %+v, want valid with document", rs)
	}
	if !report.Valid() {
		t.Error("Report.Valid() = false")
	}
}

func TestStore_ValidateMissingDocument(t *testing.T) {
	s := newWorkflowStore(t)
	w := sampleWorkflow()

	ix := NewIndex[*Workflow]()
	ix.Put(w)
	if err := s.Save(ix); err != nil {
		t.Fatal(err)
	}

	report := s.Validate(ix)
	if report.Valid() {
		t.Error("Report.Valid() = true for a record with no document")
	}
	if got := report.Records[0].Status; got != StatusMissingDocument {
		t.Errorf("Status = %v, want %v", got, StatusMissingDocument)
	}
	if degraded := report.Degraded(); len(degraded) != 1 || degraded[0].Key != "releases" {
		t.Errorf("Degraded() = %+v", degraded)
	}
}

func TestStore_ValidateBadEntries(t *testing.T) {
	s := newPatternStore(t)

	ix := NewIndex[*Pattern]()
	ix.Entries["no-slash"] = samplePattern()
	ix.Entries["communication/other"] = samplePattern()
	noName := samplePattern()
	noName.Name = ""
	ix.Put(noName)
	if err := s.RenderAndPersist(noName); err != nil {
		t.Fatal(err)
	}

	report := s.Validate(ix)
	got := make(map[string]Status)
	for _, rs := range report.Records {
		got[rs.Key] = rs.Status
	}

	want := map[string]Status{
		"no-slash":                    StatusMalformedKey,
		"communication/other":         StatusMalformedKey,
		"communication/daily-standup": StatusInvalidRecord,
	}
	for k, st := range want {
		if got[k] != st {
			t.Errorf("status[%s] = %v, want %v", k, got[k], st)
		}
	}
}

func TestStore_Create(t *testing.T) {
	s := newWorkflowStore(t)

	if err := s.Create(sampleWorkflow(), false); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ix, _ := s.Load()
	w, ok := ix.Get(Key{Type: "releases"})
	if !ok {
		t.Fatal("record not indexed after Create")
	}
	if w.CreatedAt != "2024-03-01T09:30:00Z" {
		t.Errorf("CreatedAt = %q, want RFC3339 of the injected clock", w.CreatedAt)
	}
	if w.Version != SchemaVersion {
		t.Errorf("Version = %q, want %q", w.Version, SchemaVersion)
	}

	doc, err := s.ReadDocument(w.Key())
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	for _, line := range []string{"1. A", "2. B", "3. C"} {
		if !strings.Contains(doc, line+"\n") {
			t.Errorf("document missing %q", line)
		}
	}
	if strings.Index(doc, "1. A") > strings.Index(doc, "2. B") || strings.Index(doc, "2. B") > strings.Index(doc, "3. C") {
		t.Error("steps are out of order")
	}
}

func TestStore_CreateDeclinedLeavesFilesUntouched(t *testing.T) {
	s := newWorkflowStore(t)
	if err := s.Create(sampleWorkflow(), false); err != nil {
		t.Fatal(err)
	}

	indexBefore, _ := os.ReadFile(s.IndexPath())
	docPath := s.DocumentPath(Key{Type: "releases"})
	docBefore, _ := os.ReadFile(docPath)

	changed := sampleWorkflow()
	changed.Name = "Something else"
	changed.Steps = []string{"Z"}
	err := s.Create(changed, false)
	if !errors.Is(err, ErrOverwriteDeclined) {
		t.Fatalf("Create() error = %v, want ErrOverwriteDeclined", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error %T is not a *ValidationError", err)
	}

	indexAfter, _ := os.ReadFile(s.IndexPath())
	docAfter, _ := os.ReadFile(docPath)
	if !bytes.Equal(indexBefore, indexAfter) {
		t.Error("index changed after a declined overwrite")
	}
	if !bytes.Equal(docBefore, docAfter) {
		t.Error("document changed after a declined overwrite")
	}
}

func TestStore_CreateOverwrite(t *testing.T) {
	s := newWorkflowStore(t)
	if err := s.Create(sampleWorkflow(), false); err != nil {
		t.Fatal(err)
	}

	changed := sampleWorkflow()
	changed.Name = "Renamed"
	if err := s.Create(changed, true); err != nil {
		t.Fatalf("Create(overwrite) error = %v", err)
	}

	doc, err := s.ReadDocument(changed.Key())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(doc, "# Renamed\n") {
		t.Errorf("document was not overwritten:\n%s", doc)
	}
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	s := newWorkflowStore(t)
	w := sampleWorkflow()
	w.Steps = nil

	err := s.Create(w, false)
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("Create() error = %v, want ErrInvalidRecord", err)
	}
	if !strings.Contains(err.Error(), "steps") {
		t.Errorf("error %q does not name the steps field", err)
	}
	if _, statErr := os.Stat(s.IndexPath()); !os.IsNotExist(statErr) {
		t.Error("index written for a rejected record")
	}
}

func TestStore_Remove(t *testing.T) {
	s := newPatternStore(t)
	p := samplePattern()
	if err := s.Create(p, false); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(p.Key()); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	ix, _ := s.Load()
	if ix.Has(p.Key()) {
		t.Error("record still indexed after Remove")
	}
	if s.Exists(p.Key()) {
		t.Error("document still present after Remove")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "communication")); !os.IsNotExist(err) {
		t.Error("empty category directory left behind")
	}

	if err := s.Remove(p.Key()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}

func TestIndex_Keys(t *testing.T) {
	ix := NewIndex[*Persona]()
	for _, typ := range []string{"designer", "developer", "qa-engineer"} {
		ix.Put(&Persona{Header: Header{Type: typ, Name: typ}})
	}

	keys := ix.Keys()
	want := []string{"designer", "developer", "qa-engineer"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if !ix.Delete(Key{Type: "designer"}) || ix.Delete(Key{Type: "designer"}) {
		t.Error("Delete() did not report presence correctly")
	}
}
