// Package sinks contains the progress.Sink implementations wired into the
// scrape pipeline.
package sinks
