// Package docvalue models dynamically-typed document values as a closed
// tagged union. Flattening and type tagging switch over Kind, so every shape
// a store can hand back has exactly one representation.
package docvalue

import (
	"sort"
	"time"
)

// Kind discriminates the payload held by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota // missing value; the zero Value
	KindNull
	KindBool
	KindNumber
	KindString
	KindDate
	KindObjectID // store-native identifier wrapper (e.g. a BSON ObjectId)
	KindBinary
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "bool",
	KindNumber:    "number",
	KindString:    "string",
	KindDate:      "date",
	KindObjectID:  "objectid",
	KindBinary:    "binary",
	KindArray:     "array",
	KindObject:    "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Object is a document or nested mapping.
type Object map[string]Value

// Keys returns the object's keys in lexicographic order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value is a single dynamically-typed value. The zero Value is Undefined.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	t    time.Time
	arr  []Value
	obj  Object
}

// Undefined returns the missing value.
func Undefined() Value { return Value{} }

// Null returns an explicit null.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindNumber, num: float64(i)} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Date wraps a timestamp.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// ObjectID wraps a store-native identifier, rendered as hex.
func ObjectID(hex string) Value { return Value{kind: KindObjectID, str: hex} }

// Binary wraps opaque bytes.
func Binary(b []byte) Value { return Value{kind: KindBinary, str: string(b)} }

// Array wraps an ordered list of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// ObjectValue wraps a nested mapping.
func ObjectValue(o Object) Value {
	if o == nil {
		o = Object{}
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the discriminator.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is an explicit null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsString returns the payload of a String or ObjectID value.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString || v.kind == KindObjectID
}

// AsTime returns the payload of a Date value.
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindDate }

// AsBytes returns the payload of a Binary value.
func (v Value) AsBytes() ([]byte, bool) { return []byte(v.str), v.kind == KindBinary }

// AsArray returns the items of an Array value.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the mapping of an Object value.
func (v Value) AsObject() (Object, bool) { return v.obj, v.kind == KindObject }
