// Package scheduler turns cron ticks and manual requests into serialized
// runs on one worker goroutine.
package scheduler
