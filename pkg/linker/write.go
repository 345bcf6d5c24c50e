package linker

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/coldog/jspack/pkg/chunk"
	"github.com/coldog/jspack/pkg/graph"
	"github.com/coldog/jspack/pkg/util"
)

const header = "\"use strict\";\n(function() {\n"
const footer = "})();\n"

// Output returns the bundle filename for a chunk, content hashed over its
// current membership so the name changes whenever any member does.
func Output(ch *chunk.Chunk) string {
	h := sha256.New()
	for _, m := range ch.Modules() {
		h.Write([]byte(m.ID))
		h.Write([]byte(m.Hash))
	}
	hash := hex.EncodeToString(h.Sum(nil))
	return ch.Name + "-" + hash[:16] + ".js"
}

// Write emits one bundle file per non-empty chunk into root, fanning the
// writes out over a worker pool.
func Write(ctx context.Context, g *chunk.Graph, root string, concurrency int) error {
	popd := util.Pushd(root)
	defer popd()

	if concurrency <= 0 {
		concurrency = 4
	}

	outputs := map[string]string{}
	nodes := map[string][]string{}
	for _, ch := range g.Chunks() {
		if ch.Size() == 0 {
			continue
		}
		outputs[ch.Name] = Output(ch)
		nodes[ch.Name] = nil
	}
	if len(nodes) == 0 {
		return nil
	}

	dag := &graph.Graph{
		Concurrency: concurrency,
		Nodes:       nodes,
		Process: func(ctx context.Context, name string) error {
			ch := g.Chunk(name)
			log.Infof("writing: %s", outputs[name])
			return writeChunk(g, ch, outputs)
		},
	}
	return dag.Solve(ctx)
}

// loads lists the bundle files the chunk's own load group requires besides
// the chunk itself, in group order.
func loads(g *chunk.Graph, ch *chunk.Chunk, outputs map[string]string) []string {
	grp := g.Group(ch.Name)
	if grp == nil {
		return nil
	}
	var out []string
	for _, other := range grp.Chunks() {
		if other == ch || other.Size() == 0 {
			continue
		}
		out = append(out, outputs[other.Name])
	}
	return out
}

func writeChunk(g *chunk.Graph, ch *chunk.Chunk, outputs map[string]string) error {
	f, err := os.OpenFile(outputs[ch.Name], os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0777)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := w.WriteString(header); err != nil {
		return err
	}
	if ch.Entry != "" {
		if _, err := w.WriteString(runtime); err != nil {
			return err
		}
	}
	if err := writeModules(ch, w); err != nil {
		return err
	}
	if ch.Entry != "" {
		if err := writeStart(w, ch.Entry, loads(g, ch, outputs)); err != nil {
			return err
		}
	}
	if _, err := w.WriteString(footer); err != nil {
		return err
	}
	return w.Flush()
}

func writeStart(w *bufio.Writer, entry string, chunkPaths []string) error {
	if chunkPaths == nil {
		chunkPaths = []string{}
	}
	data, err := json.Marshal(chunkPaths)
	if err != nil {
		return err
	}
	_, err = w.WriteString("start(" + string(data) + ", \"" + entry + "\")\n")
	return err
}

func writeModules(ch *chunk.Chunk, w *bufio.Writer) error {
	for _, m := range ch.Modules() {
		switch m.Kind {
		case chunk.KindRuntime:
			// Written as the prologue of entry chunks.
		case chunk.KindExternal:
			w.WriteString("window.__modules__[\"" + m.ID + "\"] = function(module) {\n")
			w.WriteString("module.exports = window[\"" + m.Global + "\"];\n")
			w.WriteString("};\n")
		case chunk.KindNormal:
			fm, err := os.Open(m.ID)
			if err != nil {
				return err
			}
			w.WriteString("window.__modules__[\"" + m.ID + "\"] = function(module, exports, require) {\n")
			_, err = io.Copy(w, fm)
			fm.Close()
			if err != nil {
				return err
			}
			w.WriteString("};\n")
		}
	}
	return nil
}
