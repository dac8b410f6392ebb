package engine

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/BrowserOS/engine/internal/engine/locator"
	"github.com/GriffinCanCode/BrowserOS/engine/internal/infrastructure/config"
)

func testConfig() config.FetchConfig {
	return config.FetchConfig{
		UserAgent:      "test-agent",
		FallbackHost:   "example.com",
		MaxRedirects:   10,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(testConfig(), 0, nil)
	t.Cleanup(e.Close)
	return e
}

// stubServer answers canned HTTP responses on a loopback listener. The
// handler receives the zero-based request number and returns the full
// response bytes.
type stubServer struct {
	addr  string
	hits  atomic.Int32
	conns atomic.Int32
}

func newStubServer(t *testing.T, handler func(hit int) string) *stubServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := &stubServer{addr: ln.Addr().String()}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.conns.Add(1)
			go s.serveConn(conn, handler)
		}
	}()
	return s
}

func (s *stubServer) serveConn(conn net.Conn, handler func(hit int) string) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		// Read one request's header block.
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if line == "\r\n" {
				break
			}
		}

		hit := int(s.hits.Add(1)) - 1
		resp := handler(hit)
		if _, err := conn.Write([]byte(resp)); err != nil {
			return
		}
		if !strings.Contains(resp, "Connection: keep-alive") {
			return
		}
	}
}

func (s *stubServer) url(path string) string {
	return "http://" + s.addr + path
}

func okResponse(body string, extraHeaders ...string) string {
	head := fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n", len(body))
	for _, h := range extraHeaders {
		head += h + "\r\n"
	}
	return head + "\r\n" + body
}

func redirectResponse(location string) string {
	return "HTTP/1.1 301 Moved Permanently\r\nLocation: " + location + "\r\nContent-Length: 0\r\n\r\n"
}

func TestFetchData(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Fetch(context.Background(), "data:text/plain,Hello%20World")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", res.Body)
	assert.Equal(t, 200, res.Status)
	assert.Equal(t, "text/plain", res.Headers["content-type"])

	t.Run("missing comma is a parse error", func(t *testing.T) {
		_, err := e.Fetch(context.Background(), "data:nocomma")
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestFetchFile(t *testing.T) {
	e := newTestEngine(t)

	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>local</p>"), 0o644))

	res, err := e.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "<p>local</p>", res.Body)

	t.Run("missing file is a hard error", func(t *testing.T) {
		_, err := e.Fetch(context.Background(), "file:///does/not/exist")
		assert.ErrorIs(t, err, ErrFileRead)
	})
}

func TestFetchHTTP(t *testing.T) {
	srv := newStubServer(t, func(hit int) string {
		return okResponse("hello over http")
	})
	e := newTestEngine(t)

	res, err := e.Fetch(context.Background(), srv.url("/index"))
	require.NoError(t, err)
	assert.Equal(t, "hello over http", res.Body)
	assert.Equal(t, 200, res.Status)
	assert.False(t, res.FromCache)
}

func TestFetchChunkedAndGzip(t *testing.T) {
	t.Run("chunked", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
		})
		e := newTestEngine(t)

		res, err := e.Fetch(context.Background(), srv.url("/"))
		require.NoError(t, err)
		assert.Equal(t, "Wikipedia", res.Body)
	})

	t.Run("gzip failure is a decode error", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return okResponse("not actually gzip", "Content-Encoding: gzip")
		})
		e := newTestEngine(t)

		_, err := e.Fetch(context.Background(), srv.url("/"))
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestRedirects(t *testing.T) {
	t.Run("exactly ten hops succeeds", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			if hit < 10 {
				return redirectResponse(fmt.Sprintf("/hop%d", hit+1))
			}
			return okResponse("made it")
		})
		e := newTestEngine(t)

		res, err := e.Fetch(context.Background(), srv.url("/start"))
		require.NoError(t, err)
		assert.Equal(t, "made it", res.Body)
		assert.Equal(t, int32(11), srv.hits.Load())
	})

	t.Run("eleven hops fails hard", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return redirectResponse(fmt.Sprintf("/hop%d", hit+1))
		})
		e := newTestEngine(t)

		_, err := e.Fetch(context.Background(), srv.url("/start"))
		assert.ErrorIs(t, err, ErrTooManyRedirects)
	})

	t.Run("relative target resolves against path directory", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			if hit == 0 {
				return redirectResponse("next")
			}
			return okResponse("dir resolved")
		})
		e := newTestEngine(t)

		res, err := e.Fetch(context.Background(), srv.url("/a/b"))
		require.NoError(t, err)
		assert.Equal(t, "dir resolved", res.Body)
		// the second request went to /a/next
		assert.Equal(t, "/a/next", res.Locator.Path)
	})
}

func TestResolveRedirect(t *testing.T) {
	loc := locator.Parse("http://example.com/a/b", "")

	assert.Equal(t, "http://other.com/x", resolveRedirect(loc, "http://other.com/x"))
	assert.Equal(t, "http://example.com:80/rooted", resolveRedirect(loc, "/rooted"))
	assert.Equal(t, "http://example.com:80/a/next", resolveRedirect(loc, "next"))

	dirLoc := locator.Parse("http://example.com/a/", "")
	assert.Equal(t, "http://example.com:80/a/next", resolveRedirect(dirLoc, "next"))
}

func TestCacheBehavior(t *testing.T) {
	t.Run("max-age served from cache", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return okResponse("cache me", "Cache-Control: max-age=60")
		})
		e := newTestEngine(t)

		first, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		assert.False(t, first.FromCache)

		second, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, "cache me", second.Body)
		assert.Equal(t, int32(1), srv.hits.Load())
	})

	t.Run("expired entry refetches", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return okResponse(fmt.Sprintf("body %d", hit), "Cache-Control: max-age=60")
		})
		e := newTestEngine(t)

		_, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)

		// Simulate 60s elapsing: the entry is no longer valid and a
		// fresh round trip repopulates the slot.
		now := time.Now()
		e.Cache().SetClock(func() time.Time { return now.Add(61 * time.Second) })

		res, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		assert.False(t, res.FromCache)
		assert.Equal(t, "body 1", res.Body)
		assert.Equal(t, int32(2), srv.hits.Load())
	})

	t.Run("no-store is never cached", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return okResponse("volatile", "Cache-Control: no-store")
		})
		e := newTestEngine(t)

		_, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		assert.Equal(t, 0, e.Cache().Len())

		res, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		assert.False(t, res.FromCache)
		assert.Equal(t, int32(2), srv.hits.Load())
	})

	t.Run("mutating result headers leaves the cache intact", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return okResponse("cache me", "Cache-Control: max-age=60", "X-Origin: upstream")
		})
		e := newTestEngine(t)

		first, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		first.Headers["x-origin"] = "tampered"

		second, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		require.True(t, second.FromCache)
		assert.Equal(t, "upstream", second.Headers["x-origin"])

		// A cache hit's map is its own copy too.
		second.Headers["x-origin"] = "tampered again"
		third, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)
		assert.Equal(t, "upstream", third.Headers["x-origin"])
	})

	t.Run("cache key is the authority, not the path", func(t *testing.T) {
		srv := newStubServer(t, func(hit int) string {
			return okResponse("first path", "Cache-Control: max-age=60")
		})
		e := newTestEngine(t)

		_, err := e.Fetch(context.Background(), srv.url("/a"))
		require.NoError(t, err)

		// A different path on the same authority hits the same slot.
		res, err := e.Fetch(context.Background(), srv.url("/completely/other"))
		require.NoError(t, err)
		assert.True(t, res.FromCache)
		assert.Equal(t, "first path", res.Body)
	})
}

func TestKeepAlivePooling(t *testing.T) {
	// no-store keeps the second fetch out of the cache so it must go
	// back to the wire; a keep-alive response keeps the connection in
	// the pool, so both exchanges ride one TCP connection.
	srv := newStubServer(t, func(hit int) string {
		return okResponse(fmt.Sprintf("exchange %d", hit),
			"Connection: keep-alive", "Cache-Control: no-store")
	})
	e := newTestEngine(t)

	first, err := e.Fetch(context.Background(), srv.url("/a"))
	require.NoError(t, err)
	assert.Equal(t, "exchange 0", first.Body)

	second, err := e.Fetch(context.Background(), srv.url("/b"))
	require.NoError(t, err)
	assert.Equal(t, "exchange 1", second.Body)

	assert.Equal(t, int32(1), srv.conns.Load(), "both exchanges should reuse one connection")
}

func TestFetchFallbackLocator(t *testing.T) {
	// A garbage URL falls back to https://<fallback host>:443/ before any
	// network activity; the locator is deterministic for any bad input.
	loc := locator.Parse("no-such-scheme://x", testConfig().FallbackHost)
	assert.Equal(t, locator.SchemeHTTPS, loc.Scheme)
	assert.Equal(t, "example.com", loc.Host)
	assert.Equal(t, 443, loc.Port)
	assert.Equal(t, "/", loc.Path)
}

func TestConnectError(t *testing.T) {
	e := newTestEngine(t)

	// A closed listener port refuses immediately.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = e.Fetch(context.Background(), "http://"+addr+"/")
	assert.ErrorIs(t, err, ErrConnect)
}

func TestViewSourceCarriesFlag(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Fetch(context.Background(), "view-source:data:text/html,<b>hi</b>")
	require.NoError(t, err)
	assert.True(t, res.Locator.ViewSource)
	assert.Equal(t, "<b>hi</b>", res.Body)
}
