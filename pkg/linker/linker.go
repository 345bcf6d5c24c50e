// Package linker links compiled object files into chunks. It traverses each
// entrypoint over the ".o" metadata the compiler emitted and builds the chunk
// graph: one chunk and one load group per entrypoint, plus any extra named
// chunks from configuration. Optimization passes run against the graph before
// Write emits the bundle files.
package linker

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/coldog/jspack/pkg/chunk"
	"github.com/coldog/jspack/pkg/compiler"
	"github.com/coldog/jspack/pkg/resolve"
	"github.com/coldog/jspack/pkg/util"
)

// RuntimeModuleID names the bootstrap module injected into every entry chunk.
const RuntimeModuleID = "__runtime__"

// Options configure a link pass. Root is the compiled output tree the object
// files live in.
type Options struct {
	Root        string
	Entrypoints map[string]string
	Chunks      []string
	Externals   map[string]string
}

type linker struct {
	graph   *chunk.Graph
	root    string
	globals map[string]string
	modules map[string]*chunk.Module
	objects map[string]compiler.Object
}

// Link traverses every entrypoint and populates g. Module identity is shared
// across chunks: a file imported from two entrypoints is one module that is a
// member of both chunks.
func Link(opts Options, g *chunk.Graph) error {
	popd := util.Pushd(opts.Root)
	defer popd()

	root, err := filepath.Abs(".")
	if err != nil {
		return err
	}

	l := &linker{
		graph:   g,
		root:    root,
		globals: opts.Externals,
		modules: map[string]*chunk.Module{},
		objects: map[string]compiler.Object{},
	}

	names := make([]string, 0, len(opts.Entrypoints))
	for name := range opts.Entrypoints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		file, err := resolve.Resolve(".", opts.Entrypoints[name])
		if err != nil {
			return fmt.Errorf("entrypoint %s: %w", name, err)
		}

		ch := g.AddChunk(name)
		ch.Entry = file
		grp := g.AddGroup(name)
		grp.PushChunk(ch)
		ch.AddModule(l.runtimeModule())

		if err := l.add(ch, file); err != nil {
			return fmt.Errorf("entrypoint %s: %w", name, err)
		}
	}

	for _, name := range opts.Chunks {
		g.AddChunk(name)
	}
	return nil
}

// Loads the module for file into the chunk and traverses child dependencies.
func (l *linker) add(ch *chunk.Chunk, file string) error {
	m, ok := l.modules[file]
	if !ok {
		o, err := compiler.ReadObjectFile(file)
		if err != nil {
			return err
		}
		m = &chunk.Module{
			ID:       file,
			Kind:     chunk.KindNormal,
			Resource: filepath.Join(l.root, file),
			Hash:     o.Hash,
			Imports:  o.Imports,
		}
		l.modules[file] = m
		l.objects[file] = o
	}

	if ch.Has(m) {
		return nil
	}
	ch.AddModule(m)

	o := l.objects[file]
	for _, ext := range o.Externals {
		ch.AddModule(l.externalModule(ext))
	}
	for _, imp := range o.Imports {
		if err := l.add(ch, imp); err != nil {
			return err
		}
	}
	return nil
}

func (l *linker) runtimeModule() *chunk.Module {
	if m, ok := l.modules[RuntimeModuleID]; ok {
		return m
	}
	m := &chunk.Module{ID: RuntimeModuleID, Kind: chunk.KindRuntime, Source: runtime}
	l.modules[RuntimeModuleID] = m
	return m
}

func (l *linker) externalModule(name string) *chunk.Module {
	if m, ok := l.modules[name]; ok {
		return m
	}
	m := &chunk.Module{ID: name, Kind: chunk.KindExternal, Global: l.globals[name]}
	l.modules[name] = m
	return m
}
