package docvalue

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// FromAny converts a decoded Go value (typically from encoding/json or a
// driver) into a Value. It never fails: shapes it does not recognise become
// Objects (string-keyed maps), Arrays (slices) or Strings (everything else).
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case Object:
		return ObjectValue(val)
	case bool:
		return Bool(val)
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Int(int64(val))
	case int8:
		return Int(int64(val))
	case int16:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint:
		return Number(float64(val))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case json.Number:
		if f, err := strconv.ParseFloat(string(val), 64); err == nil {
			return Number(f)
		}
		return String(string(val))
	case string:
		return String(val)
	case []byte:
		return Binary(val)
	case time.Time:
		return Date(val)
	case *time.Time:
		if val == nil {
			return Null()
		}
		return Date(*val)
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromAny(item)
		}
		return Array(items...)
	case map[string]any:
		obj := make(Object, len(val))
		for k, item := range val {
			obj[k] = FromAny(item)
		}
		return ObjectValue(obj)
	}

	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromAny(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null()
		}
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = FromAny(rv.Index(i).Interface())
		}
		return Array(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		obj := make(Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[iter.Key().String()] = FromAny(iter.Value().Interface())
		}
		return ObjectValue(obj)
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Invalid:
		return Null()
	}

	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return String(s.String())
	}
	return String(fmt.Sprint(rv.Interface()))
}

// ParseJSON decodes a JSON document into a Value, keeping integer precision
// for the integer/float distinction.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decoding json: %w", err)
	}
	return FromAny(raw), nil
}

// ParseDocument decodes a JSON document whose top level must be an object.
func ParseDocument(data []byte) (Object, error) {
	v, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("document is a %s, not an object", v.Kind())
	}
	return obj, nil
}

// ToAny converts a Value back into plain JSON-compatible Go values
// (map[string]any, []any, float64, string, bool, nil). Dates become RFC 3339
// strings, identifiers hex strings and binaries base64 strings.
func ToAny(v Value) any {
	switch v.kind {
	case KindUndefined, KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return nil
		}
		return v.num
	case KindString, KindObjectID:
		return v.str
	case KindDate:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindBinary:
		return base64.StdEncoding.EncodeToString([]byte(v.str))
	case KindArray:
		items := make([]any, len(v.arr))
		for i, item := range v.arr {
			items[i] = ToAny(item)
		}
		return items
	case KindObject:
		return v.obj.ToMap()
	}
	return nil
}

// ToMap converts the object into a plain map via ToAny.
func (o Object) ToMap() map[string]any {
	m := make(map[string]any, len(o))
	for k, item := range o {
		m[k] = ToAny(item)
	}
	return m
}
