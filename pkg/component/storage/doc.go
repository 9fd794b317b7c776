// Package storage holds the run context that published data source clients
// live in.
//
// A Manager maps a source name to exactly one Client. The lifecycle layer
// registers a client when a test plan starts and takes it back out when
// the plan ends; samplers look clients up by name in between.
//
// # Using the Manager
//
//	store := storage.NewManager()
//
//	if err := store.Register("mongo", client); err != nil {
//	    // name already taken
//	}
//
//	c, err := store.Get("mongo")
//
//	// Ping every client, fanned out on a worker pool
//	statuses := store.HealthCheckAll(ctx)
//
//	// Remove and close everything at teardown
//	defer store.CloseAll(ctx)
//
// # Error Handling
//
//	if errors.Is(err, storage.ErrClientNotFound) {
//	    // nothing published under that name
//	}
//
//	if storageErr, ok := storage.GetStorageError(err); ok {
//	    log.Printf("error code: %s", storageErr.Code)
//	}
//
// # Thread Safety
//
// The Manager is safe for concurrent use. Lookups take a read lock only.
package storage
