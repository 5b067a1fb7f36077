// Package docquery applies a jq projection to sampled documents before field
// inference.
package docquery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
)

// ErrNoOutput is returned when the filter produced nothing for a document,
// e.g. a select() that did not match.
var ErrNoOutput = errors.New("filter produced no output")

// Projector runs one compiled jq filter against documents.
type Projector struct {
	expression string
	code       *gojq.Code
}

// Compile parses and compiles a jq expression.
func Compile(expression string) (*Projector, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return &Projector{expression: expression, code: code}, nil
}

// Expression returns the source expression.
func (p *Projector) Expression() string {
	return p.expression
}

// Project runs the filter on doc and returns its first output, which must be
// an object. Dates, identifiers and binaries that pass through unchanged keep
// their store-native type. Output strings are matched to natives by their
// JSON rendering, so a rendering that also occurs as a plain string in doc is
// ambiguous and stays a string.
func (p *Projector) Project(ctx context.Context, doc docvalue.Object) (docvalue.Object, error) {
	natives := make(map[string]docvalue.Value)
	plain := make(map[string]struct{})
	collectNatives(docvalue.ObjectValue(doc), natives, plain)
	for s := range plain {
		delete(natives, s)
	}

	iter := p.code.RunWithContext(ctx, doc.ToMap())
	v, ok := iter.Next()
	if !ok {
		return nil, ErrNoOutput
	}
	if err, isErr := v.(error); isErr {
		var haltErr *gojq.HaltError
		if errors.As(err, &haltErr) && haltErr.Value() == nil {
			return nil, ErrNoOutput
		}
		return nil, formatError(err)
	}

	out := restoreNatives(docvalue.FromAny(v), natives)
	obj, isObj := out.AsObject()
	if !isObj {
		return nil, fmt.Errorf("filter produced %s, not an object", out.Kind())
	}
	return obj, nil
}

// collectNatives indexes the JSON rendering of every non-JSON scalar in v,
// and every plain string.
func collectNatives(v docvalue.Value, into map[string]docvalue.Value, plain map[string]struct{}) {
	switch v.Kind() {
	case docvalue.KindDate, docvalue.KindObjectID, docvalue.KindBinary:
		if s, ok := docvalue.ToAny(v).(string); ok {
			into[s] = v
		}
	case docvalue.KindString:
		s, _ := v.AsString()
		plain[s] = struct{}{}
	case docvalue.KindArray:
		items, _ := v.AsArray()
		for _, item := range items {
			collectNatives(item, into, plain)
		}
	case docvalue.KindObject:
		obj, _ := v.AsObject()
		for _, item := range obj {
			collectNatives(item, into, plain)
		}
	}
}

func restoreNatives(v docvalue.Value, natives map[string]docvalue.Value) docvalue.Value {
	if len(natives) == 0 {
		return v
	}
	switch v.Kind() {
	case docvalue.KindString:
		s, _ := v.AsString()
		if native, ok := natives[s]; ok {
			return native
		}
	case docvalue.KindArray:
		items, _ := v.AsArray()
		out := make([]docvalue.Value, len(items))
		for i, item := range items {
			out[i] = restoreNatives(item, natives)
		}
		return docvalue.Array(out...)
	case docvalue.KindObject:
		obj, _ := v.AsObject()
		out := make(docvalue.Object, len(obj))
		for k, item := range obj {
			out[k] = restoreNatives(item, natives)
		}
		return docvalue.ObjectValue(out)
	}
	return v
}

// formatError adds a hint to common runtime errors. gojq runtime errors are
// untyped, so the hints are picked by message.
func formatError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "cannot iterate over: null"):
		return fmt.Errorf("%w (the path may not exist in this document)", err)
	case strings.Contains(msg, "cannot index") && strings.Contains(msg, "with"):
		return fmt.Errorf("%w (field not found or wrong type)", err)
	}
	return err
}
