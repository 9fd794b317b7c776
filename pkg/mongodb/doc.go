// Package mongodb is the sampler side of a MongoDB data source.
//
// A source published by datasource.Manager.Start is looked up by name for
// every sample, then queries and commands run against the returned
// database handle:
//
//	db, err := mongodb.Resolve(store, "mongo", "perf")
//	if err != nil {
//	    return err
//	}
//
//	docs, err := mongodb.RunQuery(ctx, db.Collection("orders"),
//	    `{"status": "open"}`, mongodb.WithLimit(500))
//
//	res, err := mongodb.RunCommand(ctx, db, `{"ping": 1}`)
//
// Query filters and commands given as strings are parsed as relaxed
// MongoDB extended JSON. Driver errors are returned unchanged.
package mongodb
