// Package history keeps processed scenario runs in memory.
//
// The history package implements:
//   - Thread-safe run storage and retrieval
//   - Run ID generation with UUIDs
//   - Capacity limits that evict the oldest runs
//   - Age based cleanup
//
// Runs are never written to disk; a restart starts with an empty history.
//
// Usage:
//
//	store := history.NewStore(100)
//
//	if err := store.Save(run); err != nil {
//		log.Fatal(err)
//	}
//
//	run, err := store.Get(run.ID)
//	if errors.Is(err, history.ErrRunNotFound) {
//		// gone, evicted or expired
//	}
//
//	// Periodically drop runs older than an hour
//	removed := store.CleanupExpired(time.Hour)
package history
