// Package progress carries scrape job progress from the worker running the
// job to the places that care about it: the user's live stream, the job row,
// metrics, logs and the completion topic. Emitters never block; a background
// goroutine batches events and fans them out to sinks.
package progress
