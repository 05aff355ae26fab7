// Package history keeps the bounded log of subscriptions created by runs.
package history
