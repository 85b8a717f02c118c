// Package errors provides structured, coded errors for fiber.
//
// Every failure the reconciler, its host bindings and its tooling can report
// has a registered code. A code maps to a category, a short message and a
// longer explanation:
//
//   - element: malformed element documents (E1xx)
//   - config: fiber.json problems (E2xx)
//   - reconciler: host binding contract violations and broken fiber links (E3xx)
//   - protocol: undecodable patch frames (E351)
//   - server: live render server and snapshot publishing (E4xx)
//
// # Usage
//
//	err := errors.New("E102").
//	    WithLocation("tree.yaml", 4, 3).
//	    WithSuggestion("Give every node a type, for example `type: div`")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E102: Element is missing a type
//	//
//	//   tree.yaml:4:3
//	//
//	//     2 │ children:
//	//     3 │   - props: {class: x}
//	//   → 4 │     children: []
//	//       │   ^
//	//
//	//   Hint: Give every node a type, for example `type: div`
package errors
