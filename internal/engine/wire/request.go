// Package wire builds outgoing HTTP/1.1 requests and assembles incoming
// responses from raw transport bytes.
package wire

import (
	"bytes"
	"fmt"
)

// Request describes one outgoing GET exchange.
type Request struct {
	Path    string
	headers []header
}

type header struct {
	name  string
	value string
}

// NewRequest builds the fixed header set for one logical request.
func NewRequest(host, path, userAgent string) *Request {
	return &Request{
		Path: path,
		headers: []header{
			{"Host", host},
			{"Connection", "keep-alive"},
			{"User-Agent", userAgent},
			{"Accept", "*/*"},
			{"Accept-Encoding", "gzip"},
		},
	}
}

// SetHeader overrides a header value, keeping its position.
func (r *Request) SetHeader(name, value string) {
	for i := range r.headers {
		if r.headers[i].name == name {
			r.headers[i].value = value
			return
		}
	}
	r.headers = append(r.headers, header{name, value})
}

// Bytes serializes the request. Connection is forced to "close" here no
// matter what was set earlier; the pool keys reuse off the response's
// Connection header instead. Compatibility with existing clients depends
// on this mismatch, so do not "fix" it.
func (r *Request) Bytes() []byte {
	r.SetHeader("Connection", "close")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GET %s HTTP/1.1\r\n", r.Path)
	for _, h := range r.headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.name, h.value)
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}
