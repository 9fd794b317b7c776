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

func TestRunCommand(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("ping", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		res, err := RunCommand(ctx, mt.DB, `{"ping": 1}`)
		require.NoError(mt, err)
		assert.EqualValues(mt, 1, res["ok"])

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "ping", started.CommandName)
	})

	mt.Run("keeps key order", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 4}))

		res, err := RunCommand(ctx, mt.DB, `{"count": "orders", "query": {"status": "open"}}`)
		require.NoError(mt, err)
		assert.EqualValues(mt, 4, res["n"])

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "count", started.CommandName)
		assert.Equal(mt, "orders", started.Command.Lookup("count").StringValue())
	})

	mt.Run("invalid command then valid command", func(mt *mtest.T) {
		for _, bad := range []string{`{"ping": `, `ping`, ``, `   `} {
			_, err := RunCommand(ctx, mt.DB, bad)
			require.Error(mt, err, "command %q", bad)
			assert.True(mt, stderrors.Is(err, errors.ErrCommandParse))
		}
		assert.Nil(mt, mt.GetStartedEvent())

		// 数据库句柄仍然可用
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		res, err := RunCommand(ctx, mt.DB, `{"ping": 1}`)
		require.NoError(mt, err)
		assert.EqualValues(mt, 1, res["ok"])
	})

	mt.Run("server error passes through", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    59,
			Name:    "CommandNotFound",
			Message: "no such command: 'nope'",
		}))

		_, err := RunCommand(ctx, mt.DB, `{"nope": 1}`)
		require.Error(mt, err)

		var cmdErr mongo.CommandError
		require.True(mt, stderrors.As(err, &cmdErr))
		assert.Equal(mt, int32(59), cmdErr.Code)
		assert.Equal(mt, "CommandNotFound", cmdErr.Name)
		assert.False(mt, stderrors.Is(err, errors.ErrCommandParse))
	})

	mt.Run("document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "version", Value: "7.0.0"}))

		res, err := RunCommandDocument(ctx, mt.DB, bson.D{{Key: "buildInfo", Value: 1}})
		require.NoError(mt, err)
		assert.Equal(mt, "7.0.0", res["version"])
	})
}

func TestParseDocument(t *testing.T) {
	doc, err := parseDocument(`{"find": "orders", "limit": {"$numberLong": "5"}}`)
	require.NoError(t, err)
	require.Len(t, doc, 2)
	assert.Equal(t, "find", doc[0].Key)
	assert.Equal(t, int64(5), doc[1].Value)

	_, err = parseDocument(`{"a": }`)
	assert.True(t, stderrors.Is(err, errors.ErrCommandParse))
}
