package host

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/fiber/pkg/element"
)

// Node is an opaque host node handle. It is owned by the host surface.
type Node any

// Binding is the set of host mutations the reconciler performs.
type Binding interface {
	CreateNode(tag string) Node
	CreateText(text string) Node

	// SetAttributes applies only the difference between oldProps and
	// newProps. The children and text props are never attributes.
	SetAttributes(node Node, oldProps, newProps element.Props)
	SetTextContent(node Node, text string)

	InsertChild(parent, child Node)
	RemoveChild(parent, child Node)
}

// Inserter is implemented by bindings that can insert a child before an
// existing sibling. Without it, placements are appended.
type Inserter interface {
	InsertBefore(parent, child, before Node)
}

// AttrChange is one attribute set in a props delta.
type AttrChange struct {
	Key   string
	Value string
}

// DiffProps returns the attributes to set and the attribute names to remove,
// both sorted by name.
func DiffProps(oldProps, newProps element.Props) (set []AttrChange, removed []string) {
	for key := range oldProps {
		if !isAttribute(key) {
			continue
		}
		if _, ok := newProps[key]; !ok {
			removed = append(removed, key)
		}
	}
	for key, next := range newProps {
		if !isAttribute(key) {
			continue
		}
		prev, ok := oldProps[key]
		if !ok || !propsEqual(prev, next) {
			set = append(set, AttrChange{Key: key, Value: AttrString(next)})
		}
	}
	sort.Strings(removed)
	sort.Slice(set, func(i, j int) bool { return set[i].Key < set[j].Key })
	return set, removed
}

// isAttribute filters out reserved props and event handlers, which are
// never written to the host surface.
func isAttribute(key string) bool {
	if key == element.ChildrenProp || key == element.TextProp {
		return false
	}
	return !(len(key) > 2 && strings.EqualFold(key[:2], "on"))
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}

// AttrString converts a prop value to its attribute string.
func AttrString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
