package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/mongosource/pkg/infra/tracing"
)

// RunCommand parses command as extended JSON and runs it against db.
//
// A command that does not parse fails with ErrCommandParse before anything
// is sent, leaving db usable. Server and driver errors are returned as is.
func RunCommand(ctx context.Context, db *mongo.Database, command string) (bson.M, error) {
	doc, err := parseDocument(command)
	if err != nil {
		return nil, err
	}
	return RunCommandDocument(ctx, db, doc)
}

// RunCommandDocument runs an already built command document against db.
func RunCommandDocument(ctx context.Context, db *mongo.Database, doc any) (bson.M, error) {
	attrs := []tracing.KeyValue{
		tracing.String(tracing.DBSystem, "mongodb"),
		tracing.String(tracing.DBName, db.Name()),
	}
	if d, ok := doc.(bson.D); ok && len(d) > 0 {
		attrs = append(attrs, tracing.String(tracing.DBOperation, d[0].Key))
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "mongodb.command", attrs...)
	defer span.End()

	var out bson.M
	if err := db.RunCommand(ctx, doc).Decode(&out); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return out, nil
}
