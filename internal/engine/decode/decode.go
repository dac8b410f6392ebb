// Package decode resolves chunked transfer encoding and gzip content
// encoding into final body bytes.
package decode

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Chunked concatenates the payloads of a chunked transfer body. Each
// chunk is a hex length on its own line, CRLF, that many payload bytes,
// CRLF. A zero-length chunk stops decoding; trailing headers after the
// terminator are ignored.
func Chunked(body []byte) ([]byte, error) {
	var out bytes.Buffer
	rest := body

	for {
		line, tail, found := bytes.Cut(rest, []byte("\r\n"))
		if !found {
			return nil, fmt.Errorf("chunk length line missing terminator")
		}

		// Chunk extensions after ';' are not part of the length.
		sizeField := strings.TrimSpace(string(line))
		if i := strings.IndexByte(sizeField, ';'); i >= 0 {
			sizeField = sizeField[:i]
		}
		size, err := strconv.ParseInt(sizeField, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chunk length %q: %w", sizeField, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if int64(len(tail)) < size {
			return nil, fmt.Errorf("chunk shorter than declared length %d", size)
		}

		out.Write(tail[:size])
		rest = tail[size:]

		// Skip the CRLF after the payload.
		if !bytes.HasPrefix(rest, []byte("\r\n")) {
			return nil, fmt.Errorf("chunk payload missing trailing CRLF")
		}
		rest = rest[2:]
	}
}

// Gzip inflates a gzip-compressed body. Any failure is a hard error for
// the fetch.
func Gzip(body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip inflate: %w", err)
	}
	return out, nil
}
