package validator

import (
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Custom rule tags.
const (
	// TagMongoConn accepts a comma separated host[:port] list or a
	// mongodb:// / mongodb+srv:// URI.
	TagMongoConn = "mongoconn"
)

type rule struct {
	tag      string
	fn       validator.Func
	messages map[string]string
}

var rules = []rule{
	{
		tag: TagMongoConn,
		fn:  validateMongoConn,
		messages: map[string]string{
			LangEN: "{0} must be a host[:port] list or a mongodb:// URI",
			LangZH: "{0}必须是 host[:port] 列表或 mongodb:// 地址",
		},
	},
}

func validateMongoConn(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		// required handles emptiness
		return true
	}
	if strings.HasPrefix(s, "mongodb://") || strings.HasPrefix(s, "mongodb+srv://") {
		return true
	}
	for _, part := range strings.Split(s, ",") {
		if !validHostPort(strings.TrimSpace(part)) {
			return false
		}
	}
	return true
}

// validHostPort checks the syntax of host, host:port, [v6] or [v6]:port.
// It never performs DNS lookups.
func validHostPort(s string) bool {
	if s == "" || strings.ContainsAny(s, " /?#@") {
		return false
	}

	host, port := s, ""
	switch {
	case strings.HasPrefix(s, "["):
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			if !strings.HasSuffix(s, "]") {
				return false
			}
			h = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		}
		host, port = h, p
	case strings.Count(s, ":") == 1:
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			return false
		}
		host, port = h, p
	case strings.Count(s, ":") > 1:
		// bare IPv6 literal
		return net.ParseIP(s) != nil
	}

	if host == "" {
		return false
	}
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return false
		}
	}
	return true
}
