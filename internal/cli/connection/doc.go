// Package connection is the HTTP client secdesk-cli uses to talk to
// secdesk-server.
//
// Requests carry the session token as the "token" cookie, the same way a
// browser would. Non-2xx responses are decoded into *APIError.
package connection
