// Package ws provides WebSocket streaming for page loads.
//
// Clients send JSON messages of the form {"type": "load", "url": ...}
// and receive load_result replies carrying the fetched body or an
// error string. A ping/pong pair is supported for liveness checks.
package ws
