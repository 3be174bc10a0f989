// Package handler implements the JSON API.
//
// Every business route names an admission policy and calls the gate before
// decoding its body, so quota and duplicate checks always run first:
//
//   - auth.go: register, login, logout, forgot and reset password
//   - issue.go: issue CRUD scoped to the caller
//   - post.go: team feed and likes
//   - user.go: profile read and update
//   - health.go: liveness and readiness
package handler
