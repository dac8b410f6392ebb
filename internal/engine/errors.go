package engine

import "errors"

// Fetch failures surface as one of these sentinels, wrapped with
// context. Locator parse failures never surface; they fall back to a
// fixed resource instead.
var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrConnect          = errors.New("connection error")
	ErrDecode           = errors.New("decode error")
	ErrFileRead         = errors.New("file read error")
	ErrParse            = errors.New("response parse error")
)
