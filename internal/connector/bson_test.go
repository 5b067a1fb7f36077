package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/fieldinfer"
	"github.com/usestring/storeschema-mcp/pkg/typetag"
)

func marshalBSON(t *testing.T, doc bson.D) bson.Raw {
	t.Helper()
	data, err := bson.Marshal(doc)
	require.NoError(t, err)
	return bson.Raw(data)
}

func TestDocumentFromBSON(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex("65f0c0ffee0000000000beef")
	require.NoError(t, err)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	dec, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)

	raw := marshalBSON(t, bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "Ada"},
		{Key: "age", Value: int32(36)},
		{Key: "visits", Value: int64(1 << 40)},
		{Key: "score", Value: 9.5},
		{Key: "price", Value: dec},
		{Key: "active", Value: true},
		{Key: "created", Value: primitive.NewDateTimeFromTime(created)},
		{Key: "seen", Value: primitive.Timestamp{T: uint32(created.Unix()), I: 1}},
		{Key: "legacy", Value: primitive.Undefined{}},
		{Key: "nothing", Value: nil},
		{Key: "avatar", Value: primitive.Binary{Subtype: 0, Data: []byte{1, 2}}},
		{Key: "tags", Value: bson.A{"a", int32(1)}},
		{Key: "address", Value: bson.D{{Key: "city", Value: "London"}}},
		{Key: "pattern", Value: primitive.Regex{Pattern: "^a", Options: "i"}},
	})

	doc, err := documentFromBSON(raw)
	require.NoError(t, err)

	tags := map[string]typetag.Tag{}
	for k, v := range doc {
		tags[k] = typetag.Of(v)
	}
	assert.Equal(t, map[string]typetag.Tag{
		"_id":     typetag.ObjectID,
		"name":    typetag.String,
		"age":     typetag.Integer,
		"visits":  typetag.Integer,
		"score":   typetag.Float,
		"price":   typetag.Float,
		"active":  typetag.Boolean,
		"created": typetag.Date,
		"seen":    typetag.Date,
		"legacy":  typetag.Undefined,
		"nothing": typetag.Null,
		"avatar":  typetag.Object,
		"tags":    typetag.Array,
		"address": typetag.Object,
		"pattern": typetag.String,
	}, tags)

	id, _ := doc["_id"].AsString()
	assert.Equal(t, "65f0c0ffee0000000000beef", id)
	ts, _ := doc["created"].AsTime()
	assert.True(t, created.Equal(ts))

	address, ok := doc["address"].AsObject()
	require.True(t, ok)
	city, _ := address["city"].AsString()
	assert.Equal(t, "London", city)
}

func TestDocumentFromBSON_FieldInference(t *testing.T) {
	oid := primitive.NewObjectID()
	docs := []docvalue.Object{}
	for _, raw := range []bson.Raw{
		marshalBSON(t, bson.D{{Key: "_id", Value: oid}, {Key: "n", Value: int32(1)}}),
		marshalBSON(t, bson.D{{Key: "_id", Value: oid}, {Key: "n", Value: "one"}}),
	} {
		doc, err := documentFromBSON(raw)
		require.NoError(t, err)
		docs = append(docs, doc)
	}

	fields := fieldinfer.Infer(docs, fieldinfer.Options{})
	require.Len(t, fields, 2)
	assert.Equal(t, "_id", fields[0].Path)
	assert.Equal(t, []typetag.Tag{typetag.ObjectID}, fields[0].Types())
	assert.Equal(t, "n", fields[1].Path)
	assert.ElementsMatch(t, []typetag.Tag{typetag.Integer, typetag.String}, fields[1].Types())
}

func TestDocumentFromBSON_Malformed(t *testing.T) {
	_, err := documentFromBSON(bson.Raw{0x05, 0x00})
	assert.Error(t, err)
}
