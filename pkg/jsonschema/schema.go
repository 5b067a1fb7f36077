// Package jsonschema renders inferred document fields as a JSON Schema
// (Draft 2020-12) and checks sampled documents against it.
package jsonschema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/usestring/storeschema-mcp/pkg/fieldinfer"
	"github.com/usestring/storeschema-mcp/pkg/inference"
	"github.com/usestring/storeschema-mcp/pkg/typetag"
)

// objectIDPattern matches the hex form of a 12-byte store identifier.
const objectIDPattern = `^[0-9a-fA-F]{24}$`

// Options controls schema rendering.
type Options struct {
	// StrictRequired marks a property required only when it appeared in every
	// usable document and was never null or undefined. When false, presence in
	// every document is enough.
	// Default: true
	StrictRequired bool
	// AdditionalProperties sets additionalProperties on object schemas.
	// Default: nil (not set)
	AdditionalProperties *bool
	// Describe adds an occurrence note to each property description.
	// Default: true
	Describe bool
}

// DefaultOptions returns the default rendering options.
func DefaultOptions() *Options {
	return &Options{
		StrictRequired: true,
		Describe:       true,
	}
}

// node is one segment of the dotted path tree.
type node struct {
	field    *fieldinfer.FieldInfo
	count    int
	children map[string]*node
}

func (n *node) child(name string) *node {
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c, ok := n.children[name]
	if !ok {
		c = &node{}
		n.children[name] = c
	}
	return c
}

// FromResult renders a document pass as a schema titled after its collection.
func FromResult(res *inference.DocumentResult, opts *Options) *jsonschema.Schema {
	s := FromFields(res.Fields, res.SampleSize-res.SkippedDocuments, opts)
	s.Title = res.Collection
	return s
}

// FromFields rebuilds the nested object structure from dotted field paths.
// documents is the number of documents the fields were inferred from.
func FromFields(fields []fieldinfer.FieldInfo, documents int, opts *Options) *jsonschema.Schema {
	if opts == nil {
		opts = DefaultOptions()
	}

	root := &node{count: documents}
	for i := range fields {
		f := &fields[i]
		n := root
		for _, seg := range strings.Split(f.Path, ".") {
			n = n.child(seg)
			// A parent occurs at least as often as its most frequent child.
			n.count = max(n.count, f.Count)
		}
		n.field = f
	}

	schema := objectSchema(root, documents, opts)
	schema.Version = jsonschema.Version
	return schema
}

func objectSchema(n *node, documents int, opts *Options) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	if opts.AdditionalProperties != nil {
		if *opts.AdditionalProperties {
			s.AdditionalProperties = jsonschema.TrueSchema
		} else {
			s.AdditionalProperties = jsonschema.FalseSchema
		}
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	var required []string
	for _, name := range names {
		c := n.children[name]
		s.Properties.Set(name, propertySchema(c, documents, opts))
		if c.count == n.count && n.count > 0 && (!opts.StrictRequired || !optional(c)) {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		s.Required = required
	}
	return s
}

// propertySchema renders a node. A node with children is an object; types
// observed on the node itself are added as alternatives.
func propertySchema(n *node, documents int, opts *Options) *jsonschema.Schema {
	var alts []*jsonschema.Schema
	if len(n.children) > 0 {
		alts = append(alts, objectSchema(n, documents, opts))
	}
	if n.field != nil {
		for _, share := range n.field.TypeDistribution {
			if share.Type == typetag.Object && len(n.children) > 0 {
				continue
			}
			if t := tagSchema(share.Type); t != nil {
				alts = append(alts, t)
			}
		}
	}

	var s *jsonschema.Schema
	switch len(alts) {
	case 0:
		s = &jsonschema.Schema{}
	case 1:
		s = alts[0]
	default:
		s = &jsonschema.Schema{AnyOf: alts}
	}

	if opts.Describe && n.field != nil && documents > 0 {
		s.Description = fmt.Sprintf("present in %d%% of sampled documents", n.field.Occurrence)
	}
	return s
}

// tagSchema maps a type tag to a schema. Undefined has no JSON form and
// yields nil.
func tagSchema(tag typetag.Tag) *jsonschema.Schema {
	switch tag {
	case typetag.Null:
		return &jsonschema.Schema{Type: "null"}
	case typetag.Boolean:
		return &jsonschema.Schema{Type: "boolean"}
	case typetag.Integer:
		return &jsonschema.Schema{Type: "integer"}
	case typetag.Float:
		return &jsonschema.Schema{Type: "number"}
	case typetag.String:
		return &jsonschema.Schema{Type: "string"}
	case typetag.Date:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	case typetag.ObjectID:
		return &jsonschema.Schema{Type: "string", Pattern: objectIDPattern}
	case typetag.Array:
		return &jsonschema.Schema{Type: "array"}
	case typetag.Object:
		return &jsonschema.Schema{Type: "object"}
	}
	return nil
}

func optional(n *node) bool {
	if n.field == nil {
		return false
	}
	for _, share := range n.field.TypeDistribution {
		if share.Type == typetag.Null || share.Type == typetag.Undefined {
			return true
		}
	}
	return false
}
