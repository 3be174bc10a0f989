package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// KVEngine is an embedded key-value store.
//
// Implementations must be safe for concurrent use. Values passed to
// callbacks are copies and may be retained.
type KVEngine interface {
	// Get returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	Set(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix in key order.
	// The callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// Update runs fn in a read-write transaction. All writes made through
	// tx are committed together, or not at all when fn returns an error.
	Update(ctx context.Context, fn func(tx KVTxn) error) error

	Stats(ctx context.Context) (*KVStats, error)
	Close() error
}

// KVTxn is the view of a transaction passed to KVEngine.Update.
type KVTxn interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// LSMSize is the LSM tree size in bytes.
	LSMSize uint64

	// ValueLogSize is the value log size in bytes.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCRuns counts value log rewrites.
	GCRuns uint64
}

// TotalSize returns LSM plus value log size.
func (s *KVStats) TotalSize() uint64 { return s.LSMSize + s.ValueLogSize }

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in RAM; nothing survives Close.
	InMemory bool

	// GCInterval is the interval between automatic value log GC runs.
	// Zero disables the loop. Default: 10m
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// SyncWrites fsyncs after each write.
	SyncWrites bool
}

// DefaultBadgerConfig returns the default on-disk configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20,  // 64MB
		ValueLogFileSize: 256 << 20, // 256MB
	}
}

// InMemoryBadgerConfig returns a configuration that never touches disk.
func InMemoryBadgerConfig() BadgerConfig {
	cfg := DefaultBadgerConfig("")
	cfg.InMemory = true
	cfg.GCInterval = 0
	cfg.CacheSize = 16 << 20
	return cfg
}
