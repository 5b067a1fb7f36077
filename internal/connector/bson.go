package connector

import (
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
)

// documentFromBSON converts a raw BSON document. Malformed input is an error.
func documentFromBSON(raw bson.Raw) (docvalue.Object, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, fmt.Errorf("reading bson document: %w", err)
	}
	obj := make(docvalue.Object, len(elems))
	for _, elem := range elems {
		v, err := valueFromBSON(elem.Value())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", elem.Key(), err)
		}
		obj[elem.Key()] = v
	}
	return obj, nil
}

// valueFromBSON maps one BSON value onto the document model. Dates and
// timestamps become dates, ObjectIDs keep their wrapper, and the deprecated
// undefined type stays undefined.
func valueFromBSON(rv bson.RawValue) (docvalue.Value, error) {
	switch rv.Type {
	case bson.TypeNull:
		return docvalue.Null(), nil
	case bson.TypeUndefined:
		return docvalue.Undefined(), nil
	case bson.TypeBoolean:
		return docvalue.Bool(rv.Boolean()), nil
	case bson.TypeDouble:
		return docvalue.Number(rv.Double()), nil
	case bson.TypeInt32:
		return docvalue.Int(int64(rv.Int32())), nil
	case bson.TypeInt64:
		return docvalue.Int(rv.Int64()), nil
	case bson.TypeDecimal128:
		f, err := strconv.ParseFloat(rv.Decimal128().String(), 64)
		if err != nil {
			return docvalue.String(rv.Decimal128().String()), nil
		}
		return docvalue.Number(f), nil
	case bson.TypeString:
		return docvalue.String(rv.StringValue()), nil
	case bson.TypeSymbol:
		return docvalue.String(rv.Symbol()), nil
	case bson.TypeDateTime:
		return docvalue.Date(rv.Time().UTC()), nil
	case bson.TypeTimestamp:
		secs, _ := rv.Timestamp()
		return docvalue.Date(time.Unix(int64(secs), 0).UTC()), nil
	case bson.TypeObjectID:
		return docvalue.ObjectID(rv.ObjectID().Hex()), nil
	case bson.TypeBinary:
		_, data := rv.Binary()
		return docvalue.Binary(data), nil
	case bson.TypeEmbeddedDocument:
		obj, err := documentFromBSON(rv.Document())
		if err != nil {
			return docvalue.Value{}, err
		}
		return docvalue.ObjectValue(obj), nil
	case bson.TypeArray:
		values, err := rv.Array().Values()
		if err != nil {
			return docvalue.Value{}, fmt.Errorf("reading bson array: %w", err)
		}
		items := make([]docvalue.Value, len(values))
		for i, item := range values {
			v, err := valueFromBSON(item)
			if err != nil {
				return docvalue.Value{}, err
			}
			items[i] = v
		}
		return docvalue.Array(items...), nil
	}
	// Regex, JavaScript, DBPointer, MinKey and MaxKey carry no shape beyond
	// their rendering.
	return docvalue.String(rv.String()), nil
}
