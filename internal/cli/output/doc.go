// Package output renders secdesk-cli results as a table, JSON or YAML.
//
// Values printed as a table implement Tabular; JSON and YAML reuse the
// API's JSON field names.
package output
