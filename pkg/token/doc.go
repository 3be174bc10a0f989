// Package token generates opaque random tokens and their storage hashes.
//
// Tokens are 32 random bytes from crypto/rand, Base64 RawURL encoded so
// they survive query strings untouched. Only the hex SHA-256 of a token is
// ever persisted; a lookup hashes the presented token and compares hashes.
package token
