// Package mongodb provides the MongoDB connection descriptor.
package mongodb

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kart-io/mongosource/pkg/options"
	"github.com/kart-io/mongosource/pkg/utils/json"
	"github.com/kart-io/mongosource/pkg/validator"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// PasswordEnv is read by Complete when no password is configured.
const PasswordEnv = "MONGODB_PASSWORD"

// Options describes one MongoDB data source.
type Options struct {
	// Source is the name the client is published under.
	Source string `json:"source" mapstructure:"source" validate:"required"`
	// Connection is a host[:port] list or a mongodb:// URI.
	Connection string `json:"connection" mapstructure:"connection" validate:"required,mongoconn"`

	Credential   CredentialOptions   `json:"credential" mapstructure:"credential"`
	Pool         PoolOptions         `json:"connection-pool" mapstructure:"connection-pool"`
	Socket       SocketOptions       `json:"socket" mapstructure:"socket"`
	Heartbeat    HeartbeatOptions    `json:"heartbeat" mapstructure:"heartbeat"`
	SSL          SSLOptions          `json:"ssl" mapstructure:"ssl"`
	WriteConcern WriteConcernOptions `json:"write-concern" mapstructure:"write-concern"`
}

// CredentialOptions holds the optional login. Database is the auth source.
type CredentialOptions struct {
	Database string `json:"database" mapstructure:"database"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
}

// PoolOptions controls the per-host connection pool.
type PoolOptions struct {
	MinConnectionsPerHost uint64        `json:"min-connections-per-host" mapstructure:"min-connections-per-host"`
	MaxConnectionsPerHost uint64        `json:"max-connections-per-host" mapstructure:"max-connections-per-host" validate:"gte=1"`
	MaxWaitTime           time.Duration `json:"max-wait-time" mapstructure:"max-wait-time" validate:"gte=0"`
	MaxConnectionIdleTime time.Duration `json:"max-connection-idle-time" mapstructure:"max-connection-idle-time" validate:"gte=0"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time" validate:"gte=0"`

	ThreadsAllowedToBlockForConnectionMultiplier int `json:"threads-allowed-to-block-for-connection-multiplier" mapstructure:"threads-allowed-to-block-for-connection-multiplier" validate:"gte=0"`
}

// SocketOptions controls application sockets.
type SocketOptions struct {
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout" validate:"gte=0"`
	SocketTimeout  time.Duration `json:"socket-timeout" mapstructure:"socket-timeout" validate:"gte=0"`
	KeepAlive      bool          `json:"keep-alive" mapstructure:"keep-alive"`
}

// HeartbeatOptions controls server monitoring.
type HeartbeatOptions struct {
	ConnectTimeout        time.Duration `json:"connect-timeout" mapstructure:"connect-timeout" validate:"gte=0"`
	SocketTimeout         time.Duration `json:"socket-timeout" mapstructure:"socket-timeout" validate:"gte=0"`
	Frequency             time.Duration `json:"frequency" mapstructure:"frequency" validate:"gte=0"`
	MinHeartbeatFrequency time.Duration `json:"min-frequency" mapstructure:"min-frequency" validate:"gte=0"`
}

// SSLOptions controls TLS.
type SSLOptions struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// InvalidHostNameAllowed keeps certificate chain verification but skips
	// the host name check.
	InvalidHostNameAllowed bool `json:"invalid-host-name-allowed" mapstructure:"invalid-host-name-allowed"`
}

// WriteConcernOptions controls write acknowledgement.
type WriteConcernOptions struct {
	Writers      int           `json:"writers" mapstructure:"writers" validate:"gte=0"`
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout" validate:"gte=0"`
	Fsync        bool          `json:"fsync" mapstructure:"fsync"`
	Journal      bool          `json:"journal" mapstructure:"journal"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Pool: PoolOptions{
			MinConnectionsPerHost: 0,
			MaxConnectionsPerHost: 100,
			MaxWaitTime:           120 * time.Second,
			ThreadsAllowedToBlockForConnectionMultiplier: 5,
		},
		Socket: SocketOptions{
			ConnectTimeout: 10 * time.Second,
		},
		Heartbeat: HeartbeatOptions{
			ConnectTimeout:        20 * time.Second,
			SocketTimeout:         20 * time.Second,
			Frequency:             10 * time.Second,
			MinHeartbeatFrequency: 500 * time.Millisecond,
		},
		WriteConcern: WriteConcernOptions{
			Writers: 1,
		},
	}
}

// HasCredential reports whether database, username and password are all set.
// A partial credential means no authentication at all.
func (c CredentialOptions) HasCredential() bool {
	return strings.TrimSpace(c.Database) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		strings.TrimSpace(c.Password) != ""
}

type credentialForJSON struct {
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// MarshalJSON implements json.Marshaler with password redaction.
func (c CredentialOptions) MarshalJSON() ([]byte, error) {
	password := redactedPassword
	if c.Password == "" {
		password = ""
	}
	return json.Marshal(credentialForJSON{
		Database: c.Database,
		Username: c.Username,
		Password: password,
	})
}

// IsURI reports whether Connection is a mongodb:// or mongodb+srv:// URI.
func (o *Options) IsURI() bool {
	c := strings.TrimSpace(o.Connection)
	return strings.HasPrefix(c, "mongodb://") || strings.HasPrefix(c, "mongodb+srv://")
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	password := redactedPassword
	if o.Credential.Password == "" {
		password = ""
	}
	connection := o.Connection
	if o.IsURI() {
		connection = redactURI(connection)
	}
	return fmt.Sprintf("MongoDB{source=%s, connection=%s, database=%s, user=%s, password=%s, pool=%d-%d, ssl=%t, w=%d}",
		o.Source, connection, o.Credential.Database, o.Credential.Username, password,
		o.Pool.MinConnectionsPerHost, o.Pool.MaxConnectionsPerHost, o.SSL.Enabled, o.WriteConcern.Writers)
}

// redactURI hides the password part of user:password@ in a URI.
func redactURI(uri string) string {
	scheme := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if scheme < 0 || at < scheme {
		return uri
	}
	userinfo := uri[scheme+3 : at]
	if i := strings.Index(userinfo, ":"); i >= 0 {
		return uri[:scheme+3] + userinfo[:i] + ":" + redactedPassword + uri[at:]
	}
	return uri
}

// Complete fills in any fields not set that are required to have valid data.
func (o *Options) Complete() error {
	o.Source = strings.TrimSpace(o.Source)
	o.Connection = strings.TrimSpace(o.Connection)

	if o.Credential.Password == "" {
		o.Credential.Password = os.Getenv(PasswordEnv)
	}

	return nil
}

// Validate checks if the options are valid.
// This method is idempotent and has no side effects.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	errs := validator.Struct(o, validator.LangEN)

	if o.Pool.MinConnectionsPerHost > o.Pool.MaxConnectionsPerHost {
		errs = append(errs, fmt.Errorf("connection-pool: min-connections-per-host (%d) exceeds max-connections-per-host (%d)",
			o.Pool.MinConnectionsPerHost, o.Pool.MaxConnectionsPerHost))
	}
	if o.WriteConcern.Writers == 0 && (o.WriteConcern.Journal || o.WriteConcern.Fsync) {
		errs = append(errs, fmt.Errorf("write-concern: writers=0 cannot be combined with journal or fsync"))
	}

	return errs
}

// UnsupportedSettings lists settings that differ from their defaults but
// have no equivalent in the Go driver.
func (o *Options) UnsupportedSettings() []string {
	def := NewOptions()
	var out []string
	if o.Pool.MaxConnectionLifeTime != def.Pool.MaxConnectionLifeTime {
		out = append(out, "connection-pool.max-connection-life-time")
	}
	if o.Pool.ThreadsAllowedToBlockForConnectionMultiplier != def.Pool.ThreadsAllowedToBlockForConnectionMultiplier {
		out = append(out, "connection-pool.threads-allowed-to-block-for-connection-multiplier")
	}
	if o.Heartbeat.ConnectTimeout != def.Heartbeat.ConnectTimeout {
		out = append(out, "heartbeat.connect-timeout")
	}
	if o.Heartbeat.SocketTimeout != def.Heartbeat.SocketTimeout {
		out = append(out, "heartbeat.socket-timeout")
	}
	if o.Heartbeat.MinHeartbeatFrequency != def.Heartbeat.MinHeartbeatFrequency {
		out = append(out, "heartbeat.min-frequency")
	}
	return out
}

// AddFlags adds flags for MongoDB options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "mongodb."

	fs.StringVar(&o.Source, p+"source", o.Source, "Name the MongoDB client is published under.")
	fs.StringVar(&o.Connection, p+"connection", o.Connection, "Comma separated host[:port] list, or a mongodb:// URI.")

	fs.StringVar(&o.Credential.Database, p+"credential.database", o.Credential.Database, "Database the credential is defined in.")
	fs.StringVar(&o.Credential.Username, p+"credential.username", o.Credential.Username, "Username for access to mongodb service.")
	fs.StringVar(&o.Credential.Password, p+"credential.password", o.Credential.Password, "Password for access to mongodb (prefer the "+PasswordEnv+" env var).")

	fs.Uint64Var(&o.Pool.MinConnectionsPerHost, p+"connection-pool.min-connections-per-host", o.Pool.MinConnectionsPerHost, "Minimum number of connections per host.")
	fs.Uint64Var(&o.Pool.MaxConnectionsPerHost, p+"connection-pool.max-connections-per-host", o.Pool.MaxConnectionsPerHost, "Maximum number of connections per host.")
	fs.DurationVar(&o.Pool.MaxWaitTime, p+"connection-pool.max-wait-time", o.Pool.MaxWaitTime, "Maximum time to wait for a usable server.")
	fs.DurationVar(&o.Pool.MaxConnectionIdleTime, p+"connection-pool.max-connection-idle-time", o.Pool.MaxConnectionIdleTime, "Maximum idle time of a pooled connection (0 means unlimited).")
	fs.DurationVar(&o.Pool.MaxConnectionLifeTime, p+"connection-pool.max-connection-life-time", o.Pool.MaxConnectionLifeTime, "Maximum life time of a pooled connection (not supported by the Go driver).")
	fs.IntVar(&o.Pool.ThreadsAllowedToBlockForConnectionMultiplier, p+"connection-pool.threads-allowed-to-block-for-connection-multiplier",
		o.Pool.ThreadsAllowedToBlockForConnectionMultiplier, "Waiting queue multiplier (not supported by the Go driver).")

	fs.DurationVar(&o.Socket.ConnectTimeout, p+"socket.connect-timeout", o.Socket.ConnectTimeout, "Timeout for establishing a connection.")
	fs.DurationVar(&o.Socket.SocketTimeout, p+"socket.socket-timeout", o.Socket.SocketTimeout, "Timeout for socket reads and writes (0 means none).")
	fs.BoolVar(&o.Socket.KeepAlive, p+"socket.keep-alive", o.Socket.KeepAlive, "Enable TCP keep-alive.")

	fs.DurationVar(&o.Heartbeat.ConnectTimeout, p+"heartbeat.connect-timeout", o.Heartbeat.ConnectTimeout, "Heartbeat connect timeout (not supported by the Go driver).")
	fs.DurationVar(&o.Heartbeat.SocketTimeout, p+"heartbeat.socket-timeout", o.Heartbeat.SocketTimeout, "Heartbeat socket timeout (not supported by the Go driver).")
	fs.DurationVar(&o.Heartbeat.Frequency, p+"heartbeat.frequency", o.Heartbeat.Frequency, "Interval between server heartbeats.")
	fs.DurationVar(&o.Heartbeat.MinHeartbeatFrequency, p+"heartbeat.min-frequency", o.Heartbeat.MinHeartbeatFrequency, "Minimum heartbeat interval (not supported by the Go driver).")

	fs.BoolVar(&o.SSL.Enabled, p+"ssl.enabled", o.SSL.Enabled, "Connect over TLS.")
	fs.BoolVar(&o.SSL.InvalidHostNameAllowed, p+"ssl.invalid-host-name-allowed", o.SSL.InvalidHostNameAllowed, "Accept certificates whose host name does not match.")

	fs.IntVar(&o.WriteConcern.Writers, p+"write-concern.writers", o.WriteConcern.Writers, "Number of nodes that must acknowledge a write.")
	fs.DurationVar(&o.WriteConcern.WriteTimeout, p+"write-concern.write-timeout", o.WriteConcern.WriteTimeout, "Write acknowledgement timeout (0 means none).")
	fs.BoolVar(&o.WriteConcern.Fsync, p+"write-concern.fsync", o.WriteConcern.Fsync, "Require the write to be flushed to disk.")
	fs.BoolVar(&o.WriteConcern.Journal, p+"write-concern.journal", o.WriteConcern.Journal, "Require the write to be journaled.")
}
