package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/event"
)

func newPoolMonitor(source string, c Collector) *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			c.PoolEvent(source, evt)
		},
	}
}

func newCommandMonitor(source string, c Collector) *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(_ context.Context, evt *event.CommandSucceededEvent) {
			c.CommandFinished(source, evt.CommandName, evt.Duration, false)
		},
		Failed: func(_ context.Context, evt *event.CommandFailedEvent) {
			c.CommandFinished(source, evt.CommandName, evt.Duration, true)
		},
	}
}
