// Package storage provides the embedded key-value engine used by the
// kvrepo repositories.
//
// The engine wraps Badger v3. It can run on disk with a periodic value log
// GC loop, or fully in memory for tests and throwaway deployments. Sizes and
// GC progress are exported as Prometheus metrics.
package storage
