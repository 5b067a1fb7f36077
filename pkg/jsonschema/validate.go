package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
)

// DefaultMaxFailures caps the failing documents reported by Conformance.
const DefaultMaxFailures = 5

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// Validator checks documents against a compiled schema.
type Validator struct {
	schema *santhosh.Schema
}

// NewValidator compiles a rendered schema.
func NewValidator(schema *invopop.Schema) (*Validator, error) {
	// Round-trip through JSON to hand the compiler a plain value.
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := santhosh.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate returns the validation errors for doc, or nil when it conforms.
func (v *Validator) Validate(doc docvalue.Object) []string {
	err := v.schema.Validate(doc.ToMap())
	if err == nil {
		return nil
	}
	return extractValidationErrors(err)
}

// Failure is one non-conforming document.
type Failure struct {
	Index  int      `json:"index"`
	Errors []string `json:"errors"`
}

// Conformance summarises how many sampled documents satisfy the schema.
type Conformance struct {
	Checked    int       `json:"checked"`
	Valid      int       `json:"valid"`
	Percentage int       `json:"percentage"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Conformance validates every document and keeps up to maxFailures failing
// examples (DefaultMaxFailures when maxFailures <= 0).
func (v *Validator) Conformance(docs []docvalue.Object, maxFailures int) *Conformance {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}

	c := &Conformance{Checked: len(docs)}
	for i, doc := range docs {
		errs := v.Validate(doc)
		if errs == nil {
			c.Valid++
			continue
		}
		if len(c.Failures) < maxFailures {
			c.Failures = append(c.Failures, Failure{Index: i, Errors: errs})
		}
	}
	if c.Checked > 0 {
		c.Percentage = int(math.Round(float64(c.Valid) / float64(c.Checked) * 100))
	}
	return c
}

// extractValidationErrors flattens a validation error into "path: message" lines.
func extractValidationErrors(err error) []string {
	var validationErr *santhosh.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	byPath := make(map[string][]string)
	collectErrors(validationErr, byPath)

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var result []string
	for _, path := range paths {
		seen := make(map[string]bool)
		for _, msg := range byPath[path] {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, path+": "+msg)
			} else {
				result = append(result, msg)
			}
		}
	}
	if len(result) == 0 {
		return []string{err.Error()}
	}
	return result
}

// collectErrors gathers leaf errors keyed by instance location.
func collectErrors(err *santhosh.ValidationError, byPath map[string][]string) {
	path := ""
	if len(err.InstanceLocation) > 0 {
		path = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			byPath[path] = append(byPath[path], msg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, byPath)
	}
}
