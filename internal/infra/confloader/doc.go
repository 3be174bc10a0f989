// Package confloader loads configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Values already present in the target struct (defaults)
//  2. A dotenv file, when configured
//  3. A YAML file, when configured
//  4. Environment variables with the configured prefix
//
// Environment keys map to config paths by dropping the prefix, lowering the
// case and turning underscores into dots: SECDESK_AUTH_JWT_SECRET sets
// auth.jwt.secret. The same mapping applies to keys read from the dotenv
// file.
//
// Watcher reports changes to the YAML file so callers can re-read it.
package confloader
