// Package server assembles the engine bridge: it wires the fetch
// engine, the service registry, HTTP handlers, WebSocket streaming,
// middleware, and metrics into a single Gin router.
package server
