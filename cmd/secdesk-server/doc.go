// Package main provides the entry point for secdesk-server.
//
// The server hosts the SecDesk JSON API: account sign-up and sign-in,
// password reset, the per-user issue tracker, the community feed and
// profile management. Every API route passes the admission gate first.
//
// Usage:
//
//	secdesk-server [flags]
//	secdesk-server -config /etc/secdesk/server.yaml
//
// Configuration is read from a .env file in the working directory, the
// optional YAML file, then SECDESK_* environment variables. Changes to the
// YAML file are picked up for admission policies and the log level
// without a restart.
package main
