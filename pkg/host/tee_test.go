package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/host/memhost"
)

func TestTeeMirrorsMutations(t *testing.T) {
	a, b := memhost.New("body"), memhost.New("body")
	tee := host.NewTee(a, b)
	root := tee.Wrap(a.Container(), b.Container())

	div := tee.CreateNode("div")
	tee.SetAttributes(div, nil, element.Props{"id": "d"})
	last := tee.CreateText("z")
	first := tee.CreateText("a")
	tee.InsertChild(div, last)
	tee.InsertBefore(div, first, last)
	tee.InsertChild(root, div)
	tee.SetTextContent(last, "y")

	want := `<div id="d">ay</div>`
	assert.Equal(t, want, a.HTML())
	assert.Equal(t, want, b.HTML())

	tee.RemoveChild(root, div)
	assert.Empty(t, a.HTML())
	assert.Empty(t, b.HTML())
}
