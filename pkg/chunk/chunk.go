// Package chunk models the mutable chunk graph: modules grouped into named
// chunks, chunks grouped into named load groups. The linker builds the graph,
// optimization passes mutate it in place and the writer consumes it.
package chunk

import "sort"

// Kind discriminates what backs a module. Only KindNormal modules have a
// resolvable file on disk.
type Kind int

const (
	// KindNormal is a file backed module compiled from source.
	KindNormal Kind = iota
	// KindRuntime is the inline bootstrap injected into entry chunks.
	KindRuntime
	// KindExternal resolves to a global at runtime instead of a file.
	KindExternal
)

// Module is a unit of compiled code. The linker creates modules; passes only
// move them between chunks, identity is stable for the whole build.
type Module struct {
	// ID is the require specifier, a path relative to the build root for
	// normal modules.
	ID       string
	Kind     Kind
	Resource string // absolute path of the compiled file, empty unless KindNormal
	Hash     string
	Imports  []string
	Source   string // inline source for KindRuntime modules
	Global   string // window global for KindExternal modules
}

// Chunk is a named container of modules, emitted as one bundle file.
type Chunk struct {
	Name    string
	Entry   string // entry module id, empty for non-entry chunks
	modules map[string]*Module
	groups  map[string]*Group
}

func newChunk(name string) *Chunk {
	return &Chunk{
		Name:    name,
		modules: map[string]*Module{},
		groups:  map[string]*Group{},
	}
}

// AddModule adds m to the chunk. Adding a module twice is a no-op.
func (c *Chunk) AddModule(m *Module) {
	c.modules[m.ID] = m
}

// RemoveModule drops m from the chunk's membership.
func (c *Chunk) RemoveModule(m *Module) {
	delete(c.modules, m.ID)
}

// Has reports whether m is currently a member of the chunk.
func (c *Chunk) Has(m *Module) bool {
	_, ok := c.modules[m.ID]
	return ok
}

// Modules returns a sorted snapshot of the current membership. Mutating the
// chunk while ranging the snapshot is safe.
func (c *Chunk) Modules() []*Module {
	ids := make([]string, 0, len(c.modules))
	for id := range c.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Module, len(ids))
	for i, id := range ids {
		out[i] = c.modules[id]
	}
	return out
}

// Size is the number of modules currently in the chunk.
func (c *Chunk) Size() int { return len(c.modules) }

// Groups returns the groups this chunk is loaded by, sorted by name.
func (c *Chunk) Groups() []*Group {
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Group, len(names))
	for i, name := range names {
		out[i] = c.groups[name]
	}
	return out
}

// Group is a named ordered list of chunks forming one load unit: every chunk
// in the list must be available before the group's entry code runs.
type Group struct {
	Name   string
	chunks []*Chunk
}

// PushChunk appends c to the group's load list and registers the reverse
// used-by edge on the chunk. Pushing a chunk already in the group is a no-op
// and returns false.
func (g *Group) PushChunk(c *Chunk) bool {
	if g.HasChunk(c) {
		return false
	}
	g.chunks = append(g.chunks, c)
	c.groups[g.Name] = g
	return true
}

// HasChunk reports whether c is already in the group's load list.
func (g *Group) HasChunk(c *Chunk) bool {
	for _, cur := range g.chunks {
		if cur == c {
			return true
		}
	}
	return false
}

// Chunks returns the group's load list in load order.
func (g *Group) Chunks() []*Chunk {
	out := make([]*Chunk, len(g.chunks))
	copy(out, g.chunks)
	return out
}
