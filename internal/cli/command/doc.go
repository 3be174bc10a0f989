// Package command defines the secdesk-cli commands.
//
//   - root.go: App, global flags, client and printer construction
//   - auth.go: register, login, logout, forgot-password, reset-password
//   - issue.go: issue list|get|create|update|delete
//   - post.go: post feed|create|like
//   - profile.go: profile show|update
//   - version.go: client build and server health
//
// Commands write results to App.Writer in the format chosen by --output.
package command
