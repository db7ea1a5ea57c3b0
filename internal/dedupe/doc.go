// Package dedupe provides a time-based cache of handled interaction IDs so
// redelivered interactions are ignored instead of re-running a workflow step.
package dedupe
