// Package tasks runs a conversion batch with real-time progress reporting.
//
// # Pipeline
//
// [BatchEngine.Run] drives one batch:
//
//  1. Discover : walk the root with the finder, classifying each OGG as pending, already converted or unreadable
//  2. Plan : compute destinations and fail fast on path collisions
//  3. Convert : hand pending tasks to the [Dispatcher] worker pool
//  4. Verify / Delete : optional post-check, deleting sources only when the whole batch verified
//
// # Ordering and cancellation
//
// Results are written into a slot per task, so the [models.BatchReport] is in submission order whatever order workers finish in.
// Closing the Stop channel stops submission and lets running encoders finish; cancelling the context also kills them.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and the finished result during [Convert].
// Updates use select with default to prevent blocking, so a slow consumer may miss intermediate updates.
package tasks
