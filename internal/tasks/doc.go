// Package tasks implements the chart-to-playlist sync operations.
//
// The core abstraction is [SyncEngine], which drives the four run modes:
// auto (backfill on first run, append-latest afterwards, then a reorder
// pass), explicit rebuild, explicit clear, and the individual backfill
// and append operations. Operations emit progress updates via channels
// for non-blocking status reporting to CLI/UI layers.
//
// A run moves through harvesting, resolving, reconciling and persisting
// strictly sequentially on one goroutine. There is no mid-run
// checkpointing: a crash leaves the playlist and stores partially
// updated, but every resolution made before the crash is captured by the
// next successful cache write, so subsequent runs pay no re-resolution
// cost for those entries.
package tasks
