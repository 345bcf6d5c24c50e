package chunk

// Graph owns the named chunk and group registries for one compilation. The
// caller that constructs the graph owns it; passes borrow it for the duration
// of their invocation.
type Graph struct {
	chunks map[string]*Chunk
	groups map[string]*Group
	order  []string
}

func NewGraph() *Graph {
	return &Graph{
		chunks: map[string]*Chunk{},
		groups: map[string]*Group{},
	}
}

// AddChunk returns the chunk registered under name, creating it if needed.
func (g *Graph) AddChunk(name string) *Chunk {
	if c, ok := g.chunks[name]; ok {
		return c
	}
	c := newChunk(name)
	g.chunks[name] = c
	g.order = append(g.order, name)
	return c
}

// Chunk looks up a chunk by name, nil when absent.
func (g *Graph) Chunk(name string) *Chunk {
	return g.chunks[name]
}

// Chunks returns all chunks in registration order.
func (g *Graph) Chunks() []*Chunk {
	out := make([]*Chunk, len(g.order))
	for i, name := range g.order {
		out[i] = g.chunks[name]
	}
	return out
}

// AddGroup returns the group registered under name, creating it if needed.
func (g *Graph) AddGroup(name string) *Group {
	if grp, ok := g.groups[name]; ok {
		return grp
	}
	grp := &Group{Name: name}
	g.groups[name] = grp
	return grp
}

// Group looks up a group by name, nil when absent.
func (g *Graph) Group(name string) *Group {
	return g.groups[name]
}

// MoveModule transfers m from one chunk to another, preserving its identity.
// Callers gate on current membership; moving a module that is not in from is
// not a supported input.
func (g *Graph) MoveModule(m *Module, from, to *Chunk) *Module {
	from.RemoveModule(m)
	to.AddModule(m)
	return m
}
