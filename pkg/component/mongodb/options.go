package mongodb

import (
	"net"
)

// Option configures how a Client is built.
type Option func(*buildConfig)

type buildConfig struct {
	resolver  Resolver
	collector Collector
}

func newBuildConfig(opts []Option) *buildConfig {
	cfg := &buildConfig{
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithResolver replaces the DNS resolver used to check endpoints.
func WithResolver(r Resolver) Option {
	return func(c *buildConfig) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithCollector attaches pool and command monitors feeding c.
func WithCollector(c Collector) Option {
	return func(cfg *buildConfig) {
		cfg.collector = c
	}
}
