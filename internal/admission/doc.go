// Package admission implements the request admission gate.
//
// Handlers call Gate.Admit with the name of their policy before decoding
// the request body. The gate runs a fixed pipeline:
//
//  1. authenticate the bearer token (policies that require a subject)
//  2. count the request against the policy's fixed window
//  3. take the single-flight lock for mutating policies
//
// The first failing step writes the rejection and the handler returns
// without touching the domain. Policies live in a PolicyTable that can be
// swapped atomically when configuration is reloaded.
package admission
