// Package state persists cart snapshots in an origin-scoped key-value store
// and resolves them over compiled-in defaults.
//
// Layers:
//   - Backend stores opaque payloads under Ref.Identifier() keys. MemoryBackend
//     ships here; SQLite and Redis backends live in sub-packages.
//   - JSONStore[T] encodes and decodes typed snapshots on top of a Backend.
//     Malformed payloads fail open: Load reports "not found" and logs the
//     decode error instead of returning it.
//   - Resolver[T] layers the persisted snapshot over defaults through
//     layering.Stack, so persisted keys win and absent keys fall back.
//
// Data flow:
//
//	Backend -> JSONStore[T] -> Resolver[T] -> layering.NewStack(...).Merge()
//
// There is no cross-process locking. Two writers sharing a Backend race and
// the last Put wins.
package state
