package bench

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/mongosource/pkg/errors"
)

// Error keys used in reports besides Errno codes.
const (
	ErrorKeyTimeout = "timeout"
	ErrorKeyDriver  = "driver"
)

// classify maps err to a report key: the Errno code, "server:<CodeName>"
// for command errors returned by the server, "timeout", or "driver".
func classify(err error) string {
	var errno *errors.Errno
	if stderrors.As(err, &errno) {
		return errno.Key()
	}

	var cmdErr mongo.CommandError
	if stderrors.As(err, &cmdErr) && cmdErr.Name != "" {
		return "server:" + cmdErr.Name
	}

	if mongo.IsTimeout(err) || stderrors.Is(err, context.DeadlineExceeded) {
		return ErrorKeyTimeout
	}
	return ErrorKeyDriver
}
