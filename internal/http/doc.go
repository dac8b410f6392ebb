// Package http provides the gin handlers for the engine's bridge API.
//
// The one endpoint the core contract requires is POST /load: a URL in,
// a success flag with content or an error message out. The rest of the
// surface (health, services, metrics) is operational glue around it.
package http
