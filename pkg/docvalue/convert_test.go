package docvalue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny_Primitives(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    any
		expected Kind
	}{
		{"nil", nil, KindNull},
		{"bool", true, KindBool},
		{"int", 42, KindNumber},
		{"uint64", uint64(7), KindNumber},
		{"float", 1.5, KindNumber},
		{"string", "hello", KindString},
		{"bytes", []byte{1, 2, 3}, KindBinary},
		{"time", ts, KindDate},
		{"nil time pointer", (*time.Time)(nil), KindNull},
		{"slice of any", []any{1, "a"}, KindArray},
		{"typed slice", []string{"a", "b"}, KindArray},
		{"map of any", map[string]any{"a": 1}, KindObject},
		{"typed map", map[string]int{"a": 1}, KindObject},
		{"non-string keyed map", map[int]string{1: "a"}, KindString},
		{"struct falls back to string", struct{ A int }{1}, KindString},
		{"nil pointer", (*int)(nil), KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromAny(tt.input).Kind())
		})
	}
}

func TestFromAny_Nested(t *testing.T) {
	v := FromAny(map[string]any{
		"user": map[string]any{
			"tags": []any{"a", "b"},
			"age":  30,
		},
	})

	obj, ok := v.AsObject()
	require.True(t, ok)

	user, ok := obj["user"].AsObject()
	require.True(t, ok)

	tags, ok := user["tags"].AsArray()
	require.True(t, ok)
	assert.Len(t, tags, 2)

	age, ok := user["age"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, 30.0, age)
}

func TestParseJSON_KeepsNumbers(t *testing.T) {
	v, err := ParseJSON([]byte(`{"id": 9007199254740993, "ratio": 0.25}`))
	require.NoError(t, err)

	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Equal(t, KindNumber, obj["id"].Kind())
	assert.Equal(t, KindNumber, obj["ratio"].Kind())
}

func TestParseDocument_RejectsNonObject(t *testing.T) {
	_, err := ParseDocument([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = ParseDocument([]byte(`{not json`))
	assert.Error(t, err)

	obj, err := ParseDocument([]byte(`{"a": null}`))
	require.NoError(t, err)
	assert.True(t, obj["a"].IsNull())
}

func TestToAny_RoundTripsPlainJSON(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	obj := Object{
		"id":      ObjectID("65f0c0ffee0000000000beef"),
		"created": Date(ts),
		"n":       Int(3),
		"missing": Undefined(),
		"list":    Array(String("x"), Null()),
	}

	m := obj.ToMap()
	assert.Equal(t, "65f0c0ffee0000000000beef", m["id"])
	assert.Equal(t, "2024-05-01T12:00:00Z", m["created"])
	assert.Equal(t, 3.0, m["n"])
	assert.Nil(t, m["missing"])
	assert.Equal(t, []any{"x", nil}, m["list"])
}

func TestObjectKeysSorted(t *testing.T) {
	obj := Object{"b": Null(), "a": Null(), "c": Null()}
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys())
}

func TestZeroValueIsUndefined(t *testing.T) {
	var v Value
	assert.Equal(t, KindUndefined, v.Kind())
	assert.Equal(t, "undefined", v.Kind().String())
}
