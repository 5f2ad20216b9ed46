// Package persistence applies the structural changes recorded by an editing
// session to the copy of a page held in a ports.PageStore.
//
// Every call replays one operation on the stored tree under the page lock
// and writes the result back. Replays are idempotent so that a retried call
// after a timeout leaves the stored page as if it had arrived once.
package persistence
