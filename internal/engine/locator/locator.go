// Package locator turns URL strings into structured resource descriptors.
package locator

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme identifies how a resource is fetched.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeFile  Scheme = "file"
	SchemeData  Scheme = "data"
)

// DefaultFallbackHost is substituted when a URL cannot be parsed and no
// fallback host was configured.
const DefaultFallbackHost = "example.com"

// Locator is an immutable descriptor of one fetchable resource.
//
// Port is 80/443 by default for http/https, parsed from an explicit
// host:port, and -1 for file and data resources. For data resources Path
// holds the scheme-specific payload verbatim; it is split at fetch time.
type Locator struct {
	Scheme     Scheme
	Host       string
	Port       int
	Path       string
	ViewSource bool
}

// Parse interprets raw as a resource locator. It never fails: any
// malformed input yields the fallback locator instead, so callers always
// receive something fetchable.
func Parse(raw, fallbackHost string) Locator {
	loc, err := parse(raw)
	if err != nil {
		return Fallback(fallbackHost)
	}
	return loc
}

// Fallback returns the locator substituted for unparseable input.
func Fallback(host string) Locator {
	if host == "" {
		host = DefaultFallbackHost
	}
	return Locator{Scheme: SchemeHTTPS, Host: host, Port: 443, Path: "/"}
}

func parse(raw string) (Locator, error) {
	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		// The payload is split at its first comma during the fetch,
		// not here.
		return Locator{Scheme: SchemeData, Port: -1, Path: rest}, nil
	}

	if rest, ok := strings.CutPrefix(raw, "view-source:"); ok {
		inner, err := parse(rest)
		if err != nil {
			return Locator{}, err
		}
		// The inner resource's fields are hoisted; only the flag marks
		// the view-source wrapping.
		inner.ViewSource = true
		return inner, nil
	}

	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		return Locator{}, fmt.Errorf("missing scheme separator in %q", raw)
	}

	switch Scheme(scheme) {
	case SchemeFile:
		return Locator{Scheme: SchemeFile, Port: -1, Path: rest}, nil
	case SchemeHTTP, SchemeHTTPS:
		return parseNetwork(Scheme(scheme), rest)
	default:
		return Locator{}, fmt.Errorf("unsupported scheme %q", scheme)
	}
}

func parseNetwork(scheme Scheme, rest string) (Locator, error) {
	// A bare host always yields path "/".
	if !strings.Contains(rest, "/") {
		rest += "/"
	}

	host, path, _ := strings.Cut(rest, "/")
	port := 80
	if scheme == SchemeHTTPS {
		port = 443
	}

	if name, portStr, found := strings.Cut(host, ":"); found {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return Locator{}, fmt.Errorf("invalid port %q: %w", portStr, err)
		}
		host = name
		port = p
	}

	if host == "" {
		return Locator{}, fmt.Errorf("empty host in %q", rest)
	}

	return Locator{Scheme: scheme, Host: host, Port: port, Path: "/" + path}, nil
}

// Authority returns the scheme://host:port triple used as both the
// connection-pool key and the cache key.
func (l Locator) Authority() string {
	return fmt.Sprintf("%s://%s:%d", l.Scheme, l.Host, l.Port)
}

// Address returns the host:port dial target.
func (l Locator) Address() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// Secure reports whether the transport needs a TLS handshake.
func (l Locator) Secure() bool {
	return l.Scheme == SchemeHTTPS
}

func (l Locator) String() string {
	switch l.Scheme {
	case SchemeData:
		return "data:" + l.Path
	case SchemeFile:
		return "file://" + l.Path
	default:
		return fmt.Sprintf("%s://%s:%d%s", l.Scheme, l.Host, l.Port, l.Path)
	}
}
