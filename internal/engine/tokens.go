package engine

import (
	"os"
	"strings"
	"time"
)

// TimestampLayout renders ${tool:timestamp} as YYYY-MM-DD_HH-MM-SS.
const TimestampLayout = "2006-01-02_15-04-05"

const (
	tokenOpen   = "${"
	tokenClose  = "}"
	prefixEnv   = "env:"
	prefixTool  = "tool:"
	toolStamp   = "timestamp"
	tokenEscape = '\\'
)

// Resolver substitutes ${env:NAME} and ${tool:timestamp} tokens. The
// environment and clock are injected so resolution is deterministic in tests.
type Resolver struct {
	lookupEnv func(string) (string, bool)
	now       func() time.Time
}

type ResolverOption func(*Resolver)

// WithEnv sets the environment lookup, e.g. os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) ResolverOption {
	return func(r *Resolver) {
		if lookup != nil {
			r.lookupEnv = lookup
		}
	}
}

// WithEnvMap resolves variables from a fixed map.
func WithEnvMap(env map[string]string) ResolverOption {
	return WithEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
}

// WithClock sets the time source for ${tool:timestamp}.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver defaults to the process environment and the wall clock.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{lookupEnv: os.LookupEnv, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Frozen returns a copy whose clock is pinned to a single reading, so every
// timestamp produced for one command line agrees.
func (r *Resolver) Frozen() *Resolver {
	at := r.now()
	return &Resolver{lookupEnv: r.lookupEnv, now: func() time.Time { return at }}
}

// Resolve substitutes every recognized token in s. Unset variables resolve to
// "" and are reported as warnings; unrecognized tokens are kept verbatim.
func (r *Resolver) Resolve(s string) (string, []Warning) {
	if !strings.Contains(s, tokenOpen) {
		return s, nil
	}
	var (
		b     strings.Builder
		warns []Warning
	)
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == tokenEscape && strings.HasPrefix(s[i+1:], tokenOpen) {
			end := strings.Index(s[i+1:], tokenClose)
			if end < 0 {
				b.WriteString(s[i:])
				break
			}
			// drop the backslash, emit the token untouched
			b.WriteString(s[i+1 : i+1+end+1])
			i += 1 + end + 1
			continue
		}
		if strings.HasPrefix(s[i:], tokenOpen) {
			end := strings.Index(s[i:], tokenClose)
			if end < 0 {
				b.WriteString(s[i:])
				break
			}
			token := s[i : i+end+1]
			body := s[i+len(tokenOpen) : i+end]
			out, warn := r.expand(token, body)
			if warn != nil {
				warns = append(warns, *warn)
			}
			b.WriteString(out)
			i += end + 1
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), warns
}

// ResolveList resolves each comma-separated element on its own.
func (r *Resolver) ResolveList(s string) ([]string, []Warning) {
	if s == "" {
		return nil, nil
	}
	parts := splitList(s)
	out := make([]string, 0, len(parts))
	var warns []Warning
	for _, p := range parts {
		v, w := r.Resolve(p)
		out = append(out, v)
		warns = append(warns, w...)
	}
	return out, warns
}

// splitList cuts s on commas that are not inside a ${...} token, escaped or
// not. An unterminated ${ does not protect the commas after it.
func splitList(s string) []string {
	var (
		parts []string
		start int
	)
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], tokenOpen) {
			if end := strings.Index(s[i:], tokenClose); end >= 0 {
				i += end + 1
				continue
			}
		}
		if s[i] == ',' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
		i++
	}
	return append(parts, s[start:])
}

func (r *Resolver) expand(token, body string) (string, *Warning) {
	switch {
	case strings.HasPrefix(body, prefixEnv):
		name := strings.TrimPrefix(body, prefixEnv)
		if name == "" {
			return token, nil
		}
		if v, ok := r.lookupEnv(name); ok {
			return v, nil
		}
		return "", &Warning{Token: token, Msg: "environment variable " + name + " is not set"}
	case strings.HasPrefix(body, prefixTool):
		if strings.TrimPrefix(body, prefixTool) == toolStamp {
			return r.now().Format(TimestampLayout), nil
		}
		return token, &Warning{Token: token, Msg: "unknown tool token left as is"}
	}
	return token, nil
}
