// Package main is the entry point for mongo-bench, a load driver for the
// MongoDB data source.
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/kart-io/mongosource/cmd/mongo-bench/app"
)

func main() {
	app.NewApp().Run()
}
