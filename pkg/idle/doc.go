// Package idle provides a cooperative idle-time scheduling facility.
//
// A Loop owns one goroutine. Tasks posted with Dispatch run on it in order;
// callbacks registered with RequestIdle run on it when the loop is idle,
// each receiving a Deadline that reports how much of the current slice is
// left. A callback that wants to keep running re-registers itself, so a
// long computation is broken into slices with the loop free to run
// dispatched tasks in between.
//
// Every idle request carries a timeout: if the loop stays busy for longer
// than that, the callback runs anyway with DidTimeout set. Between slices
// the loop blocks; it never spins.
package idle
