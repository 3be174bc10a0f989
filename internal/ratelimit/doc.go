// Package ratelimit provides the in-memory admission counters for secdesk.
//
// Two kinds of state are kept, both keyed by caller key:
//
//   - fixed windows: a request count that resets entirely once the
//     window's reset time has passed (a request landing exactly on the
//     reset time still belongs to the old window)
//   - duplicate locks: a short single-flight marker keyed by caller,
//     method and path
//
// State is split across shards chosen by MurmurHash3 of the key. Every
// check is one critical section on its shard, so two concurrent requests
// for the same key can never both observe spare capacity. Expiry is always
// evaluated on read; the background prune only reclaims memory.
package ratelimit
