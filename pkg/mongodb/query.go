package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/mongosource/pkg/infra/tracing"
)

const tracerName = "github.com/kart-io/mongosource/pkg/mongodb"

// DefaultBatchSize is the cursor batch size used by RunQuery.
const DefaultBatchSize int32 = 100

type queryConfig struct {
	batchSize int32
	limit     int64
}

// QueryOption configures RunQuery.
type QueryOption func(*queryConfig)

// WithBatchSize sets the cursor batch size. Values <= 0 are ignored.
func WithBatchSize(n int32) QueryOption {
	return func(c *queryConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLimit caps the number of documents returned. Values <= 0 mean no cap.
func WithLimit(n int64) QueryOption {
	return func(c *queryConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}

// RunQuery runs filter against coll and returns every matching document.
//
// filter is a query document (bson.D, bson.M, struct, ...) or an extended
// JSON string; nil matches everything. A string that does not parse fails
// with ErrCommandParse. No match yields an empty slice and nil error.
func RunQuery(ctx context.Context, coll *mongo.Collection, filter any, opts ...QueryOption) ([]bson.M, error) {
	cfg := &queryConfig{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "mongodb.query",
		tracing.String(tracing.DBSystem, "mongodb"),
		tracing.String(tracing.DBName, coll.Database().Name()),
		tracing.String(tracing.DBCollection, coll.Name()),
		tracing.String(tracing.DBOperation, "find"),
	)
	defer span.End()

	query, err := queryFilter(filter)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	findOpts := options.Find().SetBatchSize(cfg.batchSize)
	if cfg.limit > 0 {
		findOpts.SetLimit(cfg.limit)
	}

	cursor, err := coll.Find(ctx, query, findOpts)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	results := make([]bson.M, 0)
	if err := cursor.All(ctx, &results); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	if results == nil {
		results = []bson.M{}
	}

	span.SetAttributes(tracing.Int(tracing.DBRows, len(results)))
	return results, nil
}

func queryFilter(filter any) (any, error) {
	switch f := filter.(type) {
	case nil:
		return bson.D{}, nil
	case string:
		return parseDocument(f)
	default:
		return f, nil
	}
}
