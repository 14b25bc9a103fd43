// Package server provides HTTP routing, middleware, and read-only diagnostic handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Diagnostic Handlers
//
// [StatusHandler] serves queue and engine health snapshots as JSON.
// All diagnostic endpoints are read-only and side-effect-free, hitting them never mutates engine state.
// Prometheus metrics are exposed separately via the telemetry package's handler.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
