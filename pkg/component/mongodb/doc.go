// Package mongodb builds the pooled MongoDB client behind a data source.
//
// It translates a connection descriptor (pkg/options/mongodb) into driver
// options, checks that every endpoint resolves, and wraps the resulting
// mongo.Client so it can be published in a storage.Manager.
//
// # Connection strings
//
// Either a comma separated host list or a URI:
//
//	db1:27017,db2:27018,[::1]
//	mongodb://db1,db2/?replicaSet=rs0
//
// Hosts without a port use 27017.
//
// # Metrics
//
// Pass WithCollector(NewPrometheusCollector(reg)) to New to export pool and
// command metrics.
package mongodb
