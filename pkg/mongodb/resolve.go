package mongodb

import (
	stderrors "errors"

	"go.mongodb.org/mongo-driver/mongo"

	mongoclient "github.com/kart-io/mongosource/pkg/component/mongodb"
	"github.com/kart-io/mongosource/pkg/component/storage"
	"github.com/kart-io/mongosource/pkg/errors"
	"github.com/kart-io/mongosource/pkg/infra/datasource"
)

// Resolve returns the named database of the client published under source.
//
// It fails with ErrConfiguration when nothing is published under source or
// the published client is not a MongoDB client. The lookup is repeated on
// every call.
func Resolve(store *storage.Manager, source, database string) (*mongo.Database, error) {
	if store == nil {
		return nil, notDefined(source)
	}

	client, err := datasource.Lookup[*mongoclient.Client](store, source)
	if err != nil {
		var mismatch *datasource.TypeMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.ErrConfiguration.
				WithMessagef("Variable: %s is not a MongoDB instance, class: %s", source, mismatch.Got)
		}
		return nil, notDefined(source)
	}

	return client.Database(database)
}

func notDefined(source string) error {
	return errors.ErrConfiguration.
		WithMessagef("You didn't define variable: %s using MongoDB Source Config (property: source)", source)
}
