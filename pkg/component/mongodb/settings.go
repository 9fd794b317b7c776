package mongodb

import (
	"net"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	mongodbopts "github.com/kart-io/mongosource/pkg/options/mongodb"
)

// keepAliveInterval is used when socket keep-alive is enabled.
const keepAliveInterval = 15 * time.Second

// BuildClientOptions translates a descriptor into driver options.
// It returns the driver options and the server addresses they point at.
// Zero durations leave the driver default (unlimited / none) in place.
func BuildClientOptions(o *mongodbopts.Options) (*options.ClientOptions, []string, error) {
	addrs, err := Endpoints(o.Connection)
	if err != nil {
		return nil, nil, err
	}

	co := options.Client()
	uri := isURI(o.Connection)
	if uri {
		co.ApplyURI(o.Connection)
	} else {
		co.SetHosts(addrs)
	}

	// A URI keeps its own query options; only descriptor values that
	// differ from the defaults override it.
	d := mongodbopts.NewOptions()
	set := func(changed bool) bool { return !uri || changed }

	if o.Credential.HasCredential() {
		co.SetAuth(options.Credential{
			AuthSource: o.Credential.Database,
			Username:   o.Credential.Username,
			Password:   o.Credential.Password,
		})
	}

	// connection pool
	if set(o.Pool.MinConnectionsPerHost != d.Pool.MinConnectionsPerHost) {
		co.SetMinPoolSize(o.Pool.MinConnectionsPerHost)
	}
	if set(o.Pool.MaxConnectionsPerHost != d.Pool.MaxConnectionsPerHost) {
		co.SetMaxPoolSize(o.Pool.MaxConnectionsPerHost)
	}
	if o.Pool.MaxWaitTime > 0 && set(o.Pool.MaxWaitTime != d.Pool.MaxWaitTime) {
		co.SetServerSelectionTimeout(o.Pool.MaxWaitTime)
	}
	if o.Pool.MaxConnectionIdleTime > 0 && set(o.Pool.MaxConnectionIdleTime != d.Pool.MaxConnectionIdleTime) {
		co.SetMaxConnIdleTime(o.Pool.MaxConnectionIdleTime)
	}

	// sockets
	dialer := &net.Dialer{KeepAlive: -1}
	if o.Socket.KeepAlive {
		dialer.KeepAlive = keepAliveInterval
	}
	if o.Socket.ConnectTimeout > 0 && set(o.Socket.ConnectTimeout != d.Socket.ConnectTimeout) {
		co.SetConnectTimeout(o.Socket.ConnectTimeout)
		dialer.Timeout = o.Socket.ConnectTimeout
	}
	co.SetDialer(dialer)
	if o.Socket.SocketTimeout > 0 && set(o.Socket.SocketTimeout != d.Socket.SocketTimeout) {
		co.SetSocketTimeout(o.Socket.SocketTimeout)
	}

	// heartbeat
	if o.Heartbeat.Frequency > 0 && set(o.Heartbeat.Frequency != d.Heartbeat.Frequency) {
		co.SetHeartbeatInterval(o.Heartbeat.Frequency)
	}

	if cfg := buildTLSConfig(o.SSL, nil); cfg != nil {
		co.SetTLSConfig(cfg)
	}

	if set(o.WriteConcern != d.WriteConcern) {
		co.SetWriteConcern(buildWriteConcern(o.WriteConcern))
	}

	if err := co.Validate(); err != nil {
		return nil, nil, err
	}
	return co, addrs, nil
}

// buildWriteConcern folds fsync into journal; the server has dropped fsync
// as a separate write concern field.
func buildWriteConcern(wc mongodbopts.WriteConcernOptions) *writeconcern.WriteConcern {
	out := &writeconcern.WriteConcern{
		W:        wc.Writers,
		WTimeout: wc.WriteTimeout,
	}
	if wc.Journal || wc.Fsync {
		j := true
		out.Journal = &j
	}
	return out
}
