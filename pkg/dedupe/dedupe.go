// Package dedupe relocates modules shared across chunks into a single
// destination chunk so shared code ships once. The pass mutates the chunk
// graph in place during the chunk optimization phase and repairs load order
// by linking the source chunk's group to the destination chunk.
package dedupe

import (
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/coldog/jspack/pkg/build"
	"github.com/coldog/jspack/pkg/chunk"
	"github.com/coldog/jspack/pkg/config"
)

// Target pairs a destination chunk name with the rule selecting modules to
// relocate into it.
type Target struct {
	Name string
	Test *regexp.Regexp
}

// Config for the pass: FromChunks are the chunks modules may be pulled out
// of, ToChunks the ordered destinations.
type Config struct {
	FromChunks []string
	ToChunks   []Target
}

// FromConfig converts the already validated yaml block.
func FromConfig(c *config.Dedupe) Config {
	targets := make([]Target, len(c.To))
	for i, t := range c.To {
		targets[i] = Target{Name: t.Name, Test: t.Test.Regexp}
	}
	return Config{FromChunks: c.From, ToChunks: targets}
}

// Plugin runs the dedupe pass on top level compilations.
type Plugin struct {
	cfg  Config
	from map[string]bool
}

func New(cfg Config) *Plugin {
	from := make(map[string]bool, len(cfg.FromChunks))
	for _, name := range cfg.FromChunks {
		from[name] = true
	}
	return &Plugin{cfg: cfg, from: from}
}

// Apply attaches the pass to the compilation's chunk optimization hook.
// Child compilations are skipped: they share the pipeline but their chunks
// are not the ones emitted as top level output.
func (p *Plugin) Apply(c *build.Compilation) {
	if c.IsChild() {
		return
	}
	c.OnOptimizeChunks(func(chunks []*chunk.Chunk) {
		p.run(c.Root, c.Graph, chunks)
	})
}

// Run executes one pass. Targets naming a chunk that does not exist are
// skipped; a chunk is never a source for itself. Per (source, destination)
// pair the source membership is snapshotted before any move, and the group
// edge is added once iff at least one module moved.
func (p *Plugin) run(root string, g *chunk.Graph, chunks []*chunk.Chunk) {
	for _, target := range p.cfg.ToChunks {
		dst := g.Chunk(target.Name)
		if dst == nil {
			log.Debugf("dedupe: no chunk named %s, skipping target", target.Name)
			continue
		}

		for _, src := range chunks {
			if src == dst || !p.from[src.Name] {
				continue
			}

			moved := false
			for _, m := range src.Modules() {
				if !matches(m, target.Test, root) {
					continue
				}
				log.Debugf("dedupe: moving %s: %s -> %s", m.ID, src.Name, dst.Name)
				moveModule(g, m, src, dst)
				moved = true
			}
			if moved {
				linkGroups(g, src, dst)
			}
		}
	}
}

// moveModule transfers the module between chunks, identity preserved.
func moveModule(g *chunk.Graph, m *chunk.Module, src, dst *chunk.Chunk) *chunk.Module {
	return g.MoveModule(m, src, dst)
}

// linkGroups makes the group named after the source chunk also load the
// destination chunk, so everything reachable through the source chunk can
// still reach the moved modules. Only applies when the source chunk is the
// root of a same named group; otherwise this is a no-op.
func linkGroups(g *chunk.Graph, src, dst *chunk.Chunk) {
	grp := g.Group(src.Name)
	if grp == nil {
		log.Debugf("dedupe: no group named %s, skipping link", src.Name)
		return
	}
	grp.PushChunk(dst)
}
