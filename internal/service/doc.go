// Package service provides the provider registry for the engine.
//
// The registry maintains a catalog of service providers and routes tool
// execution to them. Tool IDs are namespaced by service ID: the prefix
// before the first dot selects the provider.
package service
