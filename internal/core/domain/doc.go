// Package domain defines the core domain models for secdesk.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - User: account and profile, plus registration and profile inputs
//   - Issue: vulnerability records with their enumerations
//   - Post: team feed entries
//   - Notification: outbound email intents
//   - Errors: the DomainError taxonomy shared by every layer
//
// Every input type carries its own Validate method that reports all
// violations at once as a single validation DomainError.
package domain
