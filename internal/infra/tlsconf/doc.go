// Package tlsconf builds TLS configurations for the HTTP server and the CLI
// client.
//
// The server side keeps its certificate in a Reloader, which swaps in a new
// key pair whenever the files on disk change. The client side trusts the
// system roots plus an optional CA bundle.
package tlsconf
