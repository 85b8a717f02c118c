// Package host defines the capability set the fiber reconciler needs from a
// host surface: creating nodes, applying attribute deltas, changing text and
// inserting or removing children.
//
// The reconciler never inspects host nodes. It stores the handles a Binding
// returns and passes them back. Concrete surfaces live in subpackages:
// memhost keeps an in-memory tree that serializes to HTML, and wirehost turns
// every mutation into a binary patch for remote clients. Tee fans the same
// mutations out to several bindings.
package host
