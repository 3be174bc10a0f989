// Package service provides the domain services for SecDesk.
//
// Services hold the business rules and orchestrate domain models. They
// define the storage and notification ports they depend on, so the
// Badger and PostgreSQL adapters as well as test doubles plug in the same
// way.
//
// This package contains:
//
//   - TokenService: signed bearer token issuance and verification
//   - CredentialService: password hashing
//   - AuthService: registration, login and password reset
//   - IssueService: owner-scoped vulnerability records
//   - PostService: the team feed and likes
//   - UserService: profile read and update
//
// Services are safe for concurrent use.
package service
