// Package types provides shared data structures for the browser engine.
//
// This package defines core types used across all engine components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool specification
//   - Context: Execution context for operations
//   - Result: Standard operation result
//
// Request Types:
//   - LoadRequest, LoadResponse: the caller-facing load contract
//   - ExecuteRequest: Service tool execution
//   - WSMessage: WebSocket communication
package types
