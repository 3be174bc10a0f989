// Package config stores secdesk-cli state between invocations.
//
// The only state is the session saved by "auth login" and "auth register":
// the server it belongs to and the bearer token it issued. It lives in a
// YAML file readable only by its owner.
package config
