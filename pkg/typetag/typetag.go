// Package typetag classifies a single value into one coarse semantic type tag.
package typetag

import (
	"math"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
)

// Tag is a coarse semantic classification of an observed value.
type Tag string

const (
	Null      Tag = "null"
	Undefined Tag = "undefined"
	Boolean   Tag = "boolean"
	Integer   Tag = "integer"
	Float     Tag = "float"
	String    Tag = "string"
	Date      Tag = "date"
	Array     Tag = "array"
	Object    Tag = "object"
	ObjectID  Tag = "objectId"
)

// All lists every tag in a stable order.
var All = []Tag{Null, Undefined, Boolean, Integer, Float, String, Date, Array, Object, ObjectID}

// Of returns the tag for v. Containers and wrappers are checked before the
// generic object fallback: array, then date, then store-native identifiers.
// Of is total: any value it cannot place more precisely is an object.
func Of(v docvalue.Value) Tag {
	switch v.Kind() {
	case docvalue.KindNull:
		return Null
	case docvalue.KindUndefined:
		return Undefined
	case docvalue.KindArray:
		return Array
	case docvalue.KindDate:
		return Date
	case docvalue.KindObjectID:
		return ObjectID
	case docvalue.KindObject, docvalue.KindBinary:
		return Object
	case docvalue.KindNumber:
		n, _ := v.AsNumber()
		return ofNumber(n)
	case docvalue.KindBool:
		return Boolean
	case docvalue.KindString:
		return String
	}
	return Object
}

// OfAny tags an undecoded Go value.
func OfAny(v any) Tag {
	return Of(docvalue.FromAny(v))
}

func ofNumber(n float64) Tag {
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return Float
	}
	if math.Trunc(n) == n {
		return Integer
	}
	return Float
}
