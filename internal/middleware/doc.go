// Package middleware provides HTTP middleware for the engine bridge.
//
// The stack covers cross-origin resource sharing and per-IP token
// bucket rate limiting. Panic recovery and request logging come from
// Gin itself.
package middleware
