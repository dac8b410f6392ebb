package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("http with path", func(t *testing.T) {
		loc := Parse("http://example.com/a", "")
		assert.Equal(t, SchemeHTTP, loc.Scheme)
		assert.Equal(t, "example.com", loc.Host)
		assert.Equal(t, 80, loc.Port)
		assert.Equal(t, "/a", loc.Path)
		assert.False(t, loc.ViewSource)
	})

	t.Run("https with explicit port", func(t *testing.T) {
		loc := Parse("https://example.com:8443/a/b", "")
		assert.Equal(t, SchemeHTTPS, loc.Scheme)
		assert.Equal(t, "example.com", loc.Host)
		assert.Equal(t, 8443, loc.Port)
		assert.Equal(t, "/a/b", loc.Path)
	})

	t.Run("bare host gets root path", func(t *testing.T) {
		loc := Parse("https://example.com", "")
		assert.Equal(t, "example.com", loc.Host)
		assert.Equal(t, 443, loc.Port)
		assert.Equal(t, "/", loc.Path)
	})

	t.Run("default ports", func(t *testing.T) {
		assert.Equal(t, 80, Parse("http://x.com/", "").Port)
		assert.Equal(t, 443, Parse("https://x.com/", "").Port)
	})

	t.Run("file locator", func(t *testing.T) {
		loc := Parse("file:///tmp/page.html", "")
		assert.Equal(t, SchemeFile, loc.Scheme)
		assert.Equal(t, "", loc.Host)
		assert.Equal(t, -1, loc.Port)
		assert.Equal(t, "/tmp/page.html", loc.Path)
	})

	t.Run("data locator keeps payload verbatim", func(t *testing.T) {
		loc := Parse("data:text/plain,Hello%20World", "")
		assert.Equal(t, SchemeData, loc.Scheme)
		assert.Equal(t, "", loc.Host)
		assert.Equal(t, -1, loc.Port)
		assert.Equal(t, "text/plain,Hello%20World", loc.Path)
	})

	t.Run("view-source hoists inner locator", func(t *testing.T) {
		outer := Parse("view-source:https://x.com/p", "")
		inner := Parse("https://x.com/p", "")

		assert.True(t, outer.ViewSource)
		assert.Equal(t, inner.Scheme, outer.Scheme)
		assert.Equal(t, inner.Host, outer.Host)
		assert.Equal(t, inner.Port, outer.Port)
		assert.Equal(t, inner.Path, outer.Path)
	})

	t.Run("view-source of data", func(t *testing.T) {
		loc := Parse("view-source:data:text/plain,hi", "")
		assert.True(t, loc.ViewSource)
		assert.Equal(t, SchemeData, loc.Scheme)
	})
}

func TestParseFallback(t *testing.T) {
	fallback := Locator{Scheme: SchemeHTTPS, Host: "example.com", Port: 443, Path: "/"}

	cases := []string{
		"example.com",              // no scheme separator
		"gopher://example.com/",    // unknown scheme
		"http://example.com:x/",    // bad port
		"view-source:nonsense",     // inner parse fails
		"http:///missing-host",     // empty host
		"",                         // empty input
	}

	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, fallback, Parse(raw, "example.com"))
		})
	}
}

func TestAuthority(t *testing.T) {
	loc := Parse("https://example.com:8443/a/b", "")
	assert.Equal(t, "https://example.com:8443", loc.Authority())
	assert.Equal(t, "example.com:8443", loc.Address())
	assert.True(t, loc.Secure())

	// Authority ignores the path: two resources on one host share it.
	other := Parse("https://example.com:8443/other", "")
	assert.Equal(t, loc.Authority(), other.Authority())
}
