// Package upload runs the bounded worker pool that pushes evaluation audio
// files to remote storage.
//
// A Manager owns W workers draining an unbounded FIFO of Tasks. Each worker
// fetches a fresh upload URL for its task at dispatch time, transfers the
// file, and records ISO-8601 start and finish timestamps keyed by remote
// object key. Failures are logged and recorded per key; they never stop the
// pool and never leave a timestamp entry behind.
//
// Shutdown is explicit: WaitAndClose waits until every enqueued task has been
// marked done, then signals the workers to stop, then joins them.
package upload
