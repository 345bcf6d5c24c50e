package linker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldog/jspack/pkg/chunk"
	"github.com/coldog/jspack/pkg/compiler"
)

func writeModule(t *testing.T, root, id, body string, o compiler.Object) {
	t.Helper()
	path := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	o.Filename = id
	require.NoError(t, compiler.WriteObjectFile(path, o))
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeModule(t, root, "src/index.js", "require(\"src/shared/util.js\");\n", compiler.Object{
		Hash:      "h-index",
		Imports:   []string{"src/shared/util.js"},
		Externals: []string{"react"},
	})
	writeModule(t, root, "src/other.js", "require(\"src/shared/util.js\");\n", compiler.Object{
		Hash:    "h-other",
		Imports: []string{"src/shared/util.js"},
	})
	writeModule(t, root, "src/shared/util.js", "module.exports = 1;\n", compiler.Object{
		Hash: "h-util",
	})
	return root
}

func link(t *testing.T, root string) *chunk.Graph {
	t.Helper()
	g := chunk.NewGraph()
	err := Link(Options{
		Root: root,
		Entrypoints: map[string]string{
			"main":  "./src/index.js",
			"other": "./src/other.js",
		},
		Chunks:    []string{"common"},
		Externals: map[string]string{"react": "React"},
	}, g)
	require.NoError(t, err)
	return g
}

func TestLink(t *testing.T) {
	root := fixture(t)
	g := link(t, root)

	main := g.Chunk("main")
	require.NotNil(t, main)
	assert.Equal(t, "src/index.js", main.Entry)
	assert.Equal(t, 4, main.Size(), "entry, util, runtime and external")

	ids := []string{}
	for _, m := range main.Modules() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{RuntimeModuleID, "react", "src/index.js", "src/shared/util.js"}, ids)

	grp := g.Group("main")
	require.NotNil(t, grp)
	assert.Equal(t, []*chunk.Chunk{main}, grp.Chunks())

	common := g.Chunk("common")
	require.NotNil(t, common)
	assert.Equal(t, 0, common.Size())

	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	for _, m := range main.Modules() {
		if m.Kind == chunk.KindNormal {
			assert.Equal(t, filepath.Join(abs, m.ID), m.Resource)
		}
	}
}

func TestLinkSharedIdentity(t *testing.T) {
	g := link(t, fixture(t))

	var inMain, inOther *chunk.Module
	for _, m := range g.Chunk("main").Modules() {
		if m.ID == "src/shared/util.js" {
			inMain = m
		}
	}
	for _, m := range g.Chunk("other").Modules() {
		if m.ID == "src/shared/util.js" {
			inOther = m
		}
	}
	require.NotNil(t, inMain)
	assert.Same(t, inMain, inOther, "shared module should be one identity")
}

func TestLinkMissingEntrypoint(t *testing.T) {
	g := chunk.NewGraph()
	err := Link(Options{
		Root:        t.TempDir(),
		Entrypoints: map[string]string{"main": "./missing.js"},
	}, g)
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	root := fixture(t)
	g := link(t, root)

	require.NoError(t, Write(context.Background(), g, root, 2))

	mains, err := filepath.Glob(filepath.Join(root, "main-*.js"))
	require.NoError(t, err)
	require.Len(t, mains, 1)

	data, err := os.ReadFile(mains[0])
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "function require(")
	assert.Contains(t, body, `window.__modules__["src/index.js"]`)
	assert.Contains(t, body, `window.__modules__["src/shared/util.js"]`)
	assert.Contains(t, body, `window.__modules__["react"]`)
	assert.Contains(t, body, `window["React"]`)
	assert.Contains(t, body, `start([], "src/index.js")`)

	// Empty chunks are not written.
	commons, err := filepath.Glob(filepath.Join(root, "common-*.js"))
	require.NoError(t, err)
	assert.Len(t, commons, 0)
}

func TestWriteLoads(t *testing.T) {
	root := fixture(t)
	g := link(t, root)

	// Relocate the shared module and repair the load groups the way the
	// dedupe pass does.
	var util *chunk.Module
	for _, m := range g.Chunk("main").Modules() {
		if m.ID == "src/shared/util.js" {
			util = m
		}
	}
	require.NotNil(t, util)
	common := g.Chunk("common")
	g.MoveModule(util, g.Chunk("main"), common)
	g.MoveModule(util, g.Chunk("other"), common)
	g.Group("main").PushChunk(common)
	g.Group("other").PushChunk(common)

	require.NoError(t, Write(context.Background(), g, root, 2))

	commons, err := filepath.Glob(filepath.Join(root, "common-*.js"))
	require.NoError(t, err)
	require.Len(t, commons, 1)

	data, err := os.ReadFile(commons[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `window.__modules__["src/shared/util.js"]`)
	assert.NotContains(t, string(data), "start(", "non entry chunks have no start call")

	mains, err := filepath.Glob(filepath.Join(root, "main-*.js"))
	require.NoError(t, err)
	require.Len(t, mains, 1)
	data, err = os.ReadFile(mains[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `start(["`+filepath.Base(commons[0])+`"], "src/index.js")`)
	assert.NotContains(t, string(data), `window.__modules__["src/shared/util.js"]`)
}
