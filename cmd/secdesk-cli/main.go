// Package main provides the entry point for secdesk-cli.
//
// secdesk-cli drives the SecDesk API from a terminal: sign in once with
// "auth login", then work with issues, the feed and your profile.
//
//	secdesk-cli --server https://desk.example.com auth login -e neo@example.com
//	secdesk-cli issue list --type VAPT
//	secdesk-cli -o json post feed
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/yndnr/secdesk-go/internal/cli/command"
	"github.com/yndnr/secdesk-go/internal/cli/connection"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if connection.IsStatus(err, http.StatusUnauthorized) {
			fmt.Fprintln(os.Stderr, "the saved session was rejected, run: secdesk-cli auth login")
		}
		os.Exit(1)
	}
}
