package mongodb

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kart-io/mongosource/pkg/errors"
)

// parseDocument parses relaxed extended JSON into an ordered document.
// Command documents are order sensitive, so bson.D is used.
func parseDocument(text string) (bson.D, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrCommandParse.WithMessage("empty document")
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(text), false, &doc); err != nil {
		return nil, errors.ErrCommandParse.WithCause(err)
	}
	return doc, nil
}
