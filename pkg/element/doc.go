// Package element provides the immutable tree description that the fiber
// reconciler renders.
//
// An Element is a type (a host tag name, or TextType for plain text) and a
// Props map. Child elements live under the reserved "children" prop, so an
// element tree is nothing more than nested props:
//
//	el := element.Div(element.Class("card"),
//	    element.H1("Title"),
//	    element.P("Body text"),
//	)
//
// Non-element children (strings, numbers, booleans) are wrapped in text
// elements by Create. Elements have no identity beyond their position in
// the tree; the reconciler matches them positionally by type.
//
// Element documents can also be loaded from YAML or JSON with Decode and
// DecodeFile:
//
//	type: div
//	props: {class: card}
//	children:
//	  - type: h1
//	    children: [Title]
//	  - Body text
package element
