package wire

import (
	"strings"
)

// Response is one fully framed HTTP response. Header keys are folded to
// lowercase; duplicates are last-write-wins. Body holds the raw framed
// bytes before transfer/content decoding.
type Response struct {
	Version     string
	Status      int
	Explanation string
	Headers     map[string]string
	Body        []byte
}

// Header returns the value for a lowercase header name.
func (r *Response) Header(name string) (string, bool) {
	v, ok := r.Headers[name]
	return v, ok
}

// KeepAlive reports whether the response asked for the transport to stay
// open.
func (r *Response) KeepAlive() bool {
	v, ok := r.Headers["connection"]
	return ok && strings.EqualFold(strings.TrimSpace(v), "keep-alive")
}

// Chunked reports whether the body uses chunked transfer encoding.
func (r *Response) Chunked() bool {
	v, ok := r.Headers["transfer-encoding"]
	return ok && strings.Contains(strings.ToLower(v), "chunked")
}

// Gzipped reports whether the body is gzip content-encoded.
func (r *Response) Gzipped() bool {
	v, ok := r.Headers["content-encoding"]
	return ok && strings.Contains(strings.ToLower(v), "gzip")
}

// IsRedirect reports whether the status asks the client to follow a
// location header.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}
