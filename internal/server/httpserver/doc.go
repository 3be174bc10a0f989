// Package httpserver assembles the HTTP server: middleware, the route mux
// and TLS serving. Route handlers live in the handler sub-package.
//
// Middleware order, outermost first:
//
//	Recover -> RequestID -> Audit -> CORS -> BodyLimit -> mux
package httpserver
