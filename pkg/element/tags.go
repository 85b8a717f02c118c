package element

import "strings"

// build is the shared body of the tag helpers: Attr, []Attr and Props
// arguments become props, everything else is a child.
func build(tag string, args []any) *Element {
	props := make(Props)
	children := make([]any, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case Attr:
			if v.Key != "" {
				props[v.Key] = v.Value
			}
		case []Attr:
			for _, a := range v {
				if a.Key != "" {
					props[a.Key] = a.Value
				}
			}
		case Props:
			for k, val := range v {
				props[k] = val
			}
		default:
			children = append(children, arg)
		}
	}
	return Create(tag, props, children...)
}

// El creates an element with an arbitrary tag.
func El(tag string, args ...any) *Element { return build(tag, args) }

func Div(args ...any) *Element     { return build("div", args) }
func Span(args ...any) *Element    { return build("span", args) }
func P(args ...any) *Element       { return build("p", args) }
func A(args ...any) *Element       { return build("a", args) }
func H1(args ...any) *Element      { return build("h1", args) }
func H2(args ...any) *Element      { return build("h2", args) }
func H3(args ...any) *Element      { return build("h3", args) }
func Ul(args ...any) *Element      { return build("ul", args) }
func Ol(args ...any) *Element      { return build("ol", args) }
func Li(args ...any) *Element      { return build("li", args) }
func Button(args ...any) *Element  { return build("button", args) }
func Input(args ...any) *Element   { return build("input", args) }
func Section(args ...any) *Element { return build("section", args) }
func Header(args ...any) *Element  { return build("header", args) }
func Footer(args ...any) *Element  { return build("footer", args) }
func Strong(args ...any) *Element  { return build("strong", args) }
func Em(args ...any) *Element      { return build("em", args) }
func Br(args ...any) *Element      { return build("br", args) }
func Img(args ...any) *Element     { return build("img", args) }

// Prop creates an arbitrary prop.
func Prop(key string, value any) Attr { return Attr{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return Prop("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Prop("class", strings.Join(classes, " ")) }

// Style sets the style attribute.
func Style(style string) Attr { return Prop("style", style) }

// Href sets the href attribute.
func Href(href string) Attr { return Prop("href", href) }

// Data creates a data-* attribute.
func Data(key, value string) Attr { return Prop("data-"+key, value) }

// Disabled sets the disabled attribute.
func Disabled(disabled bool) Attr { return Prop("disabled", disabled) }
