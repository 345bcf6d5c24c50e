// Package build runs the pipeline: compile sources, link the chunk graph,
// fire the chunk optimization hooks once, write bundles. Plugins attach to
// compilations through hooks, mirroring how they are invoked by the phases.
package build

import (
	"context"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/coldog/jspack/pkg/chunk"
	"github.com/coldog/jspack/pkg/compiler"
	"github.com/coldog/jspack/pkg/config"
	"github.com/coldog/jspack/pkg/linker"
)

// Plugin is applied to every compilation the builder creates, top level and
// child alike. Plugins decide themselves which compilations to act on.
type Plugin interface {
	Apply(c *Compilation)
}

// Compilation is the per-build context handed to plugins: the output root,
// the mutable chunk graph and the optimization hooks. Child compilations are
// spawned by plugins for sub-passes; their chunks are never emitted as top
// level output.
type Compilation struct {
	Root  string
	Graph *chunk.Graph

	parent         *Compilation
	optimizeChunks []func(chunks []*chunk.Chunk)
}

// Parent returns the compilation this one was spawned from, nil at top level.
func (c *Compilation) Parent() *Compilation { return c.parent }

// IsChild reports whether this is a nested compilation.
func (c *Compilation) IsChild() bool { return c.parent != nil }

// OnOptimizeChunks registers a hook fired once per graph optimization pass
// with the current chunk list.
func (c *Compilation) OnOptimizeChunks(fn func(chunks []*chunk.Chunk)) {
	c.optimizeChunks = append(c.optimizeChunks, fn)
}

// OptimizeChunks fires the optimization hooks in registration order.
func (c *Compilation) OptimizeChunks() {
	for _, fn := range c.optimizeChunks {
		fn(c.Graph.Chunks())
	}
}

type Builder struct {
	cfg     *config.Config
	plugins []Plugin
}

func New(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Use registers a plugin. Plugins are applied to compilations in
// registration order.
func (b *Builder) Use(p Plugin) {
	b.plugins = append(b.plugins, p)
}

// NewCompilation creates a compilation and applies every registered plugin to
// it. Pass a parent to create a nested compilation for a sub-pass.
func (b *Builder) NewCompilation(parent *Compilation) (*Compilation, error) {
	root, err := filepath.Abs(filepath.Join(b.cfg.Root, b.cfg.Dst))
	if err != nil {
		return nil, err
	}
	c := &Compilation{
		Root:   root,
		Graph:  chunk.NewGraph(),
		parent: parent,
	}
	for _, p := range b.plugins {
		p.Apply(c)
	}
	return c, nil
}

// Build runs the full pipeline once.
func (b *Builder) Build(ctx context.Context) error {
	log.Infof("compiling %v", b.cfg.Srcs)
	err := compiler.Compile(compiler.Options{
		Root:        b.cfg.Root,
		Dst:         b.cfg.Dst,
		Srcs:        b.cfg.Srcs,
		Ignore:      b.cfg.Ignore,
		Externals:   b.cfg.Externals,
		Concurrency: b.cfg.Concurrency,
	})
	if err != nil {
		return err
	}

	c, err := b.NewCompilation(nil)
	if err != nil {
		return err
	}

	log.Infof("linking %d entrypoints", len(b.cfg.Entrypoints))
	err = linker.Link(linker.Options{
		Root:        c.Root,
		Entrypoints: b.cfg.Entrypoints,
		Chunks:      b.cfg.Chunks,
		Externals:   b.cfg.Externals,
	}, c.Graph)
	if err != nil {
		return err
	}

	c.OptimizeChunks()

	return linker.Write(ctx, c.Graph, c.Root, b.cfg.Concurrency)
}
