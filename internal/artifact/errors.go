package artifact

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformedData marks an index file that exists but cannot be parsed.
	// Load reports it as a warning and falls back to an empty index.
	ErrMalformedData = errors.New("malformed index")

	// ErrOverwriteDeclined is returned when a record already exists and the
	// caller did not confirm the overwrite.
	ErrOverwriteDeclined = errors.New("overwrite declined")

	// ErrUnknownSubtype is returned for a type or category outside the catalog.
	ErrUnknownSubtype = errors.New("unknown type")

	// ErrInvalidRecord is returned when a record fails field validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrNotFound is returned when a key is not in the index.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a request that was rejected before anything was written.
type ValidationError struct {
	Kind   Kind
	Key    string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Key != "" {
		fmt.Fprintf(&b, " '%s'", e.Key)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var recordValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their index names rather than Go names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CheckRecord validates a record's fields. Problems are returned as a
// ValidationError wrapping ErrInvalidRecord.
func CheckRecord(kind Kind, r Record) error {
	err := recordValidate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Kind: kind, Key: r.Key().String(), Err: ErrInvalidRecord, Reason: err.Error()}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return &ValidationError{
		Kind:   kind,
		Key:    r.Key().String(),
		Err:    ErrInvalidRecord,
		Reason: strings.Join(problems, "; "),
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag())
	}
}
