package connector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/pkg/docvalue"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// MongoStore samples MongoDB collections with the $sample stage.
type MongoStore struct {
	base
	client      *mongo.Client
	db          *mongo.Database
	collections []string
	sampleSize  int
}

func openMongo(ctx context.Context, cfg config.StoreConfig, opts Options) (Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.URL)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &MongoStore{
		base:        base{name: cfg.Name, kind: config.KindMongoDB},
		client:      client,
		db:          client.Database(cfg.Database),
		collections: cfg.Collections,
		sampleSize:  opts.SampleSize,
	}, nil
}

// Collections returns the configured collections, or every collection of the
// database sorted by name.
func (s *MongoStore) Collections(ctx context.Context) ([]string, error) {
	if len(s.collections) > 0 {
		return s.collections, nil
	}
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Documents runs a $sample aggregation and streams the result in batches.
// Documents that fail to convert are emitted as nil.
func (s *MongoStore) Documents(ctx context.Context, collection string, batchHint int) (sampler.Cursor[docvalue.Object], error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: s.sampleSize}}}},
	}
	aggOpts := options.Aggregate()
	if batchHint > 0 {
		aggOpts.SetBatchSize(int32(batchHint))
	}

	cur, err := s.db.Collection(collection).Aggregate(ctx, pipeline, aggOpts)
	if err != nil {
		return nil, fmt.Errorf("sampling collection %q: %w", collection, err)
	}
	return newMongoCursor(cur, max(batchHint, 1)), nil
}

// Count returns the collection's estimated document count from metadata.
func (s *MongoStore) Count(ctx context.Context, collection string) (int64, error) {
	n, err := s.db.Collection(collection).EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting collection %q: %w", collection, err)
	}
	return n, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// mongoCursor groups a driver cursor into batches. It closes itself on
// exhaustion or error; the sampler closes it when a cap ends the pass.
type mongoCursor struct {
	cur       *mongo.Cursor
	batchSize int
	closed    bool
}

func newMongoCursor(cur *mongo.Cursor, batchSize int) *mongoCursor {
	return &mongoCursor{cur: cur, batchSize: batchSize}
}

func (c *mongoCursor) Next(ctx context.Context) ([]docvalue.Object, bool, error) {
	if c.closed {
		return nil, true, nil
	}

	batch := make([]docvalue.Object, 0, c.batchSize)
	for len(batch) < c.batchSize {
		if !c.cur.Next(ctx) {
			err := c.cur.Err()
			_ = c.Close()
			if err != nil {
				return nil, false, fmt.Errorf("reading mongodb cursor: %w", err)
			}
			return batch, true, nil
		}
		doc, err := documentFromBSON(c.cur.Current)
		if err != nil {
			slog.Debug("skipping undecodable document", slog.String("error", err.Error()))
			doc = nil
		}
		batch = append(batch, doc)
	}
	return batch, false, nil
}

// Close releases the driver cursor and its implicit session. Safe to call
// after exhaustion.
func (c *mongoCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.cur.Close(context.Background())
}
