package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/fieldinfer"
)

func TestValidator_SampleConformsToOwnSchema(t *testing.T) {
	docs := sampleDocs()
	s := FromFields(fieldinfer.Infer(docs, fieldinfer.Options{}), len(docs), nil)

	v, err := NewValidator(s)
	require.NoError(t, err)

	c := v.Conformance(docs, 0)
	assert.Equal(t, 2, c.Checked)
	assert.Equal(t, 2, c.Valid)
	assert.Equal(t, 100, c.Percentage)
	assert.Empty(t, c.Failures)
}

func TestValidator_ReportsFailures(t *testing.T) {
	docs := sampleDocs()
	s := FromFields(fieldinfer.Infer(docs, fieldinfer.Options{}), len(docs), nil)

	v, err := NewValidator(s)
	require.NoError(t, err)

	bad := []docvalue.Object{
		docs[0],
		{"name": docvalue.Int(7)},
	}

	c := v.Conformance(bad, 0)
	assert.Equal(t, 1, c.Valid)
	assert.Equal(t, 50, c.Percentage)
	require.Len(t, c.Failures, 1)
	assert.Equal(t, 1, c.Failures[0].Index)
	assert.NotEmpty(t, c.Failures[0].Errors)

	joined := ""
	for _, e := range c.Failures[0].Errors {
		joined += e + "\n"
	}
	assert.Contains(t, joined, "/name")
}

func TestValidator_FailureCap(t *testing.T) {
	s := FromFields(fieldinfer.Infer([]docvalue.Object{{"a": docvalue.Int(1)}}, fieldinfer.Options{}), 1, nil)
	v, err := NewValidator(s)
	require.NoError(t, err)

	var docs []docvalue.Object
	for range 10 {
		docs = append(docs, docvalue.Object{"a": docvalue.String("x")})
	}

	c := v.Conformance(docs, 3)
	assert.Zero(t, c.Valid)
	assert.Len(t, c.Failures, 3)
	assert.Zero(t, c.Percentage)
}

func TestValidator_Empty(t *testing.T) {
	v, err := NewValidator(FromFields(nil, 0, nil))
	require.NoError(t, err)

	c := v.Conformance(nil, 0)
	assert.Zero(t, c.Checked)
	assert.Zero(t, c.Percentage)
}
