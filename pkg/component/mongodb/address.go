package mongodb

import (
	"context"
	"net"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/kart-io/mongosource/pkg/errors"
)

// DefaultPort is used for hosts given without a port.
const DefaultPort = 27017

// Resolver looks up host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// ParseHosts splits a comma separated host[:port] list into normalized
// "host:port" addresses. IPv6 literals may be bracketed.
func ParseHosts(connection string) ([]string, error) {
	parts := strings.Split(connection, ",")
	addrs := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, errors.ErrUnresolvableEndpoint.WithMessagef("empty address in %q", connection)
		}

		host, port, err := splitHostPort(part)
		if err != nil {
			return nil, errors.ErrUnresolvableEndpoint.WithMessagef("invalid address %q", part).WithCause(err)
		}
		addrs = append(addrs, net.JoinHostPort(host, strconv.Itoa(port)))
	}

	return addrs, nil
}

func splitHostPort(s string) (string, int, error) {
	// bare IPv6 literal or a host without port
	if ip := net.ParseIP(strings.Trim(s, "[]")); ip != nil && !strings.Contains(s, "]:") {
		return ip.String(), DefaultPort, nil
	}
	if !strings.Contains(s, ":") {
		return s, DefaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, err
	}
	if host == "" {
		return "", 0, &net.AddrError{Err: "missing host", Addr: s}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, &net.AddrError{Err: "invalid port", Addr: s}
	}
	return host, port, nil
}

// Endpoints returns the server addresses named by a connection string.
// URIs are parsed by the driver; for mongodb+srv this includes the SRV lookup.
func Endpoints(connection string) ([]string, error) {
	if !isURI(connection) {
		return ParseHosts(connection)
	}

	cs, err := connstring.ParseAndValidate(connection)
	if err != nil {
		return nil, errors.ErrUnresolvableEndpoint.WithMessagef("invalid connection string %s", redactURI(connection)).WithCause(err)
	}
	return cs.Hosts, nil
}

// ResolveEndpoints checks that every address resolves. IP literals and unix
// sockets are accepted without a lookup.
func ResolveEndpoints(ctx context.Context, r Resolver, addrs []string) error {
	if r == nil {
		r = net.DefaultResolver
	}

	for _, addr := range addrs {
		if strings.HasSuffix(addr, ".sock") {
			continue
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if net.ParseIP(host) != nil {
			continue
		}

		resolved, err := r.LookupHost(ctx, host)
		if err != nil {
			return errors.ErrUnresolvableEndpoint.WithMessagef("cannot resolve %s", addr).WithCause(err)
		}
		if len(resolved) == 0 {
			return errors.ErrUnresolvableEndpoint.WithMessagef("cannot resolve %s: no addresses", addr)
		}
	}

	return nil
}

func isURI(s string) bool {
	return strings.HasPrefix(s, connstring.SchemeMongoDB+"://") ||
		strings.HasPrefix(s, connstring.SchemeMongoDBSRV+"://")
}

// redactURI drops the userinfo part of a URI.
func redactURI(uri string) string {
	scheme := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if scheme < 0 || at < scheme {
		return uri
	}
	return uri[:scheme+3] + "***" + uri[at:]
}
