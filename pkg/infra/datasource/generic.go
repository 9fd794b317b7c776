package datasource

import (
	"fmt"

	"github.com/kart-io/mongosource/pkg/component/storage"
)

// TypeMismatchError reports a slot holding a client of another type.
type TypeMismatchError struct {
	Name string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s is a %s, not a %s", e.Name, e.Got, e.Want)
}

// Lookup returns the client published under name as a T.
//
// Returns storage.ErrClientNotFound when the slot is empty and a
// *TypeMismatchError when it holds something else.
//
//	client, err := datasource.Lookup[*mongodb.Client](store, "mongo")
func Lookup[T storage.Client](store *storage.Manager, name string) (T, error) {
	var zero T
	client, err := store.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := client.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name: name,
			Want: fmt.Sprintf("%T", zero),
			Got:  fmt.Sprintf("%T", client),
		}
	}
	return typed, nil
}
