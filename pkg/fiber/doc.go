// Package fiber is an incremental reconciler for element trees.
//
// Given a new element tree for a host container, a Scheduler builds a
// "work-in-progress" fiber tree alongside the last committed one, marks
// every fiber that needs a host mutation, and then applies exactly those
// mutations to the host surface in one uninterrupted commit.
//
// # Fibers
//
// A Fiber is one render-tree node of one generation. Fibers are linked by
// Child, Sibling and Return pointers; the traversal walks these edges with
// an explicit loop, never with recursion, so it can stop between any two
// fibers and resume later. Alternate pairs a fiber with its counterpart in
// the other generation. Only two generations ever exist: each new render
// either builds a fresh tree or recycles the buffer that was current two
// renders ago.
//
// # Work loop
//
// WorkLoop processes fibers until the idle.Deadline it is given runs out.
// Each fiber gets "begin work" (create its host node, diff its children)
// and later "complete work" (splice its effects onto its parent's effect
// list). When no work is left the tree is committed. Start hooks the work
// loop to an idle.Loop so it re-arms after every slice.
//
// # Diffing
//
// Children are matched strictly by position and type. An element at
// position i reuses the old fiber at position i when both have the same
// type, and otherwise replaces it. There are no keys, so a reordered list
// is reconciled as deletions and placements, not moves.
//
// # Commit
//
// The commit removes deleted subtrees, then walks the root's effect list
// in order: placements are inserted, updates apply attribute deltas or new
// text, deletions are removed. The committed tree becomes current.
package fiber
