// Package async provides safe concurrent execution primitives for
// detached background work.
//
// SafeGo runs a function in a goroutine with panic recovery, a timeout
// and error logging; Batch processes a slice concurrently with the same
// guarantees per item. Both exist for best-effort side effects
// (notification dispatch, downstream re-association) that must never
// fail or block the operation that triggered them.
package async
