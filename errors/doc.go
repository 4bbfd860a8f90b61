// Package errors provides unified error handling for pageiter.
//
// Failures are reported as *AppError values with a code:
//
//   - STORE_ERROR: a Count or Find call failed; the iterator stays retryable.
//   - WORK_ERROR: a work function failed; dispatch stops, in-flight work finishes.
//   - CANCELED: the caller's context ended.
//   - INVALID_INPUT: options or query were rejected.
//
// Use IsStoreError and IsWorkError to distinguish the two causes surfaced by
// ForEachAsync.
package errors
