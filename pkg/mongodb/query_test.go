package mongodb

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/kart-io/mongosource/pkg/errors"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestRunQuery(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("no match returns empty slice", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		docs, err := RunQuery(ctx, mt.Coll, bson.D{{Key: "status", Value: "missing"}})
		require.NoError(mt, err)
		require.NotNil(mt, docs)
		assert.Empty(mt, docs)
	})

	mt.Run("collects every batch", func(mt *mtest.T) {
		ns := namespace(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(42, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: 1}},
				bson.D{{Key: "_id", Value: 2}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
				bson.D{{Key: "_id", Value: 3}},
			),
		)

		docs, err := RunQuery(ctx, mt.Coll, nil)
		require.NoError(mt, err)
		require.Len(mt, docs, 3)
		assert.EqualValues(mt, 1, docs[0]["_id"])
		assert.EqualValues(mt, 3, docs[2]["_id"])

		// 第一个命令是 find, 默认批大小 100
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, DefaultBatchSize, started.Command.Lookup("batchSize").Int32())

		next := mt.GetStartedEvent()
		require.NotNil(mt, next)
		assert.Equal(mt, "getMore", next.CommandName)
	})

	mt.Run("limit and batch size are sent", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 1}},
			bson.D{{Key: "_id", Value: 2}},
		))

		docs, err := RunQuery(ctx, mt.Coll, nil, WithLimit(2), WithBatchSize(10))
		require.NoError(mt, err)
		assert.Len(mt, docs, 2)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, int64(2), started.Command.Lookup("limit").Int64())
		assert.Equal(mt, int32(10), started.Command.Lookup("batchSize").Int32())
	})

	mt.Run("extended json filter", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 1}, {Key: "qty", Value: 9}},
		))

		docs, err := RunQuery(ctx, mt.Coll, `{"qty": {"$gt": 5}}`)
		require.NoError(mt, err)
		assert.Len(mt, docs, 1)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("filter").Document()
		gt := filter.Lookup("qty", "$gt")
		assert.EqualValues(mt, 5, gt.Int32())
	})

	mt.Run("invalid filter is a parse error", func(mt *mtest.T) {
		_, err := RunQuery(ctx, mt.Coll, `{"qty": `)
		require.Error(mt, err)
		assert.True(mt, stderrors.Is(err, errors.ErrCommandParse))
		// 解析失败时不发送任何命令
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("driver error passes through", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "unknown operator: $foo",
		}))

		_, err := RunQuery(ctx, mt.Coll, bson.D{{Key: "qty", Value: bson.D{{Key: "$foo", Value: 1}}}})
		require.Error(mt, err)

		var cmdErr mongo.CommandError
		require.True(mt, stderrors.As(err, &cmdErr))
		assert.Equal(mt, int32(2), cmdErr.Code)
		assert.Equal(mt, -1, errors.GetCode(err))
	})
}

func TestQueryOptions(t *testing.T) {
	cfg := &queryConfig{batchSize: DefaultBatchSize}
	WithBatchSize(0)(cfg)
	WithLimit(-1)(cfg)
	assert.Equal(t, DefaultBatchSize, cfg.batchSize)
	assert.Equal(t, int64(0), cfg.limit)

	WithBatchSize(7)(cfg)
	WithLimit(3)(cfg)
	assert.Equal(t, int32(7), cfg.batchSize)
	assert.Equal(t, int64(3), cfg.limit)
}
