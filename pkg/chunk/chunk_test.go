package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphRegistries(t *testing.T) {
	g := NewGraph()
	a := g.AddChunk("a")
	b := g.AddChunk("b")

	assert.Same(t, a, g.AddChunk("a"), "AddChunk should return the existing chunk")
	assert.Same(t, a, g.Chunk("a"))
	assert.Nil(t, g.Chunk("missing"))
	assert.Equal(t, []*Chunk{a, b}, g.Chunks(), "registration order")

	grp := g.AddGroup("a")
	assert.Same(t, grp, g.AddGroup("a"))
	assert.Nil(t, g.Group("missing"))
}

func TestChunkMembership(t *testing.T) {
	g := NewGraph()
	c := g.AddChunk("c")
	m := &Module{ID: "src/a.js", Kind: KindNormal}

	c.AddModule(m)
	c.AddModule(m)
	require.True(t, c.Has(m))
	assert.Equal(t, 1, c.Size())

	c.RemoveModule(m)
	assert.False(t, c.Has(m))
	assert.Equal(t, 0, c.Size())
}

func TestModulesSnapshot(t *testing.T) {
	g := NewGraph()
	c := g.AddChunk("c")
	b := &Module{ID: "b.js"}
	a := &Module{ID: "a.js"}
	c.AddModule(b)
	c.AddModule(a)

	snap := c.Modules()
	assert.Equal(t, []*Module{a, b}, snap, "sorted by id")

	// Mutating while ranging the snapshot is safe.
	for _, m := range snap {
		c.RemoveModule(m)
	}
	assert.Equal(t, 0, c.Size())
	assert.Len(t, snap, 2)
}

func TestGroupPushChunk(t *testing.T) {
	g := NewGraph()
	a := g.AddChunk("a")
	common := g.AddChunk("common")
	grp := g.AddGroup("a")

	require.True(t, grp.PushChunk(a))
	require.True(t, grp.PushChunk(common))
	assert.False(t, grp.PushChunk(common), "push is idempotent")

	assert.Equal(t, []*Chunk{a, common}, grp.Chunks())
	assert.True(t, grp.HasChunk(common))
	assert.Equal(t, []*Group{grp}, common.Groups(), "reverse edge registered")
}

func TestMoveModule(t *testing.T) {
	g := NewGraph()
	from := g.AddChunk("from")
	to := g.AddChunk("to")
	m := &Module{ID: "src/a.js"}
	from.AddModule(m)

	got := g.MoveModule(m, from, to)

	assert.Same(t, m, got, "identity preserved")
	assert.False(t, from.Has(m))
	assert.True(t, to.Has(m))
}
