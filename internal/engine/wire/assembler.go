package wire

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// State tracks assembly of one response.
type State int

const (
	StateAwaitingHeaders State = iota
	StateAwaitingBody
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingHeaders:
		return "awaiting-headers"
	case StateAwaitingBody:
		return "awaiting-body"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	delimiter       = []byte("\r\n\r\n")
	chunkTerminator = []byte("0\r\n\r\n")
)

// Assembler buffers raw transport bytes until one response is fully
// framed. Completion is a pure function of the buffered bytes: the
// header/body delimiter must be present, then either content-length
// bytes have arrived, the chunked zero-length terminator has arrived,
// or (neither framing header present) the stream has ended.
type Assembler struct {
	buf           []byte
	state         State
	err           error
	headerEnd     int
	resp          *Response
	contentLength int
	chunked       bool
}

// NewAssembler returns an assembler awaiting the first bytes.
func NewAssembler() *Assembler {
	return &Assembler{contentLength: -1}
}

// State returns the current assembly state.
func (a *Assembler) State() State { return a.state }

// Feed appends arriving bytes and advances the state machine.
func (a *Assembler) Feed(p []byte) State {
	if a.state == StateComplete || a.state == StateFailed {
		return a.state
	}
	a.buf = append(a.buf, p...)
	a.advance()
	return a.state
}

// FinishEOF marks end of stream. A stream that ends before the header
// delimiter is a framing failure; an unframed body simply ends here.
func (a *Assembler) FinishEOF() State {
	switch a.state {
	case StateAwaitingHeaders:
		a.fail(errors.New("stream ended before header delimiter"))
	case StateAwaitingBody:
		a.complete()
	}
	return a.state
}

// Response returns the assembled response.
func (a *Assembler) Response() (*Response, error) {
	switch a.state {
	case StateComplete:
		return a.resp, nil
	case StateFailed:
		return nil, a.err
	default:
		return nil, fmt.Errorf("response not yet framed (state %s)", a.state)
	}
}

func (a *Assembler) advance() {
	if a.state == StateAwaitingHeaders {
		idx := bytes.Index(a.buf, delimiter)
		if idx < 0 {
			return
		}
		a.headerEnd = idx + len(delimiter)

		resp, err := parseHead(a.buf[:idx])
		if err != nil {
			a.fail(err)
			return
		}
		a.resp = resp
		a.chunked = resp.Chunked()
		if v, ok := resp.Headers["content-length"]; ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				a.fail(fmt.Errorf("invalid content-length %q", v))
				return
			}
			a.contentLength = n
		}
		a.state = StateAwaitingBody
	}

	if a.state == StateAwaitingBody {
		body := a.buf[a.headerEnd:]
		switch {
		case a.chunked:
			if bytes.Contains(body, chunkTerminator) {
				a.complete()
			}
		case a.contentLength >= 0:
			if len(body) >= a.contentLength {
				a.complete()
			}
		}
	}
}

func (a *Assembler) complete() {
	a.resp.Body = a.buf[a.headerEnd:]
	a.state = StateComplete
}

func (a *Assembler) fail(err error) {
	a.err = err
	a.state = StateFailed
}

// parseHead splits the pre-delimiter bytes into the status line and
// header mapping.
func parseHead(head []byte) (*Response, error) {
	lines := strings.Split(string(head), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, errors.New("missing status line")
	}

	resp := &Response{Headers: make(map[string]string)}

	// Status line: version, integer status, explanation is the rest.
	parts := strings.SplitN(lines[0], " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed status line %q", lines[0])
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("non-numeric status in %q", lines[0])
	}
	resp.Version = parts[0]
	resp.Status = status
	if len(parts) == 3 {
		resp.Explanation = parts[2]
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		// Keys fold to lowercase; duplicates are last-write-wins.
		resp.Headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	return resp, nil
}
