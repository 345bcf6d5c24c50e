// Package compiler walks configured source trees, compiles each file into the
// output tree and emits a ".o" object file per module describing its resolved
// imports. A content hash cache in bld.json skips unchanged files.
package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/coldog/jspack/pkg/util"
)

var extensions = []string{"js", "jsx", "tsx", "ts"}

const stateFile = "bld.json"

func canCompile(name string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Options configure a compile pass. Root is the project directory, Dst the
// output tree relative to Root, Srcs the source trees relative to Root.
type Options struct {
	Root        string
	Dst         string
	Srcs        []string
	Ignore      []string
	Externals   map[string]string
	Concurrency int
}

// compileFile is very simple in that it takes a file and writes a compiled
// file.
func compileFile(src, dst, file string, externals map[string]string) error {
	srcFile := filepath.Join(src, file)
	dstFile := filepath.Join(dst, src, file)
	os.MkdirAll(filepath.Dir(dstFile), 0700)

	var cmd *exec.Cmd
	if canCompile(file) {
		cmd = exec.Command(
			"babel", srcFile,
			"--compact=true",
			"--config-file", "./.babelrc",
			"--out-file", dstFile,
		)
	} else {
		cmd = exec.Command("cp", srcFile, dstFile)
	}

	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("compile %s: %w", srcFile, err)
	}

	if !canCompile(file) {
		return nil
	}

	imps, exts, err := compileImports(srcFile, dstFile, externals)
	if err != nil {
		return err
	}
	h, err := hash(dstFile)
	if err != nil {
		return err
	}
	return WriteObjectFile(dstFile, Object{
		Filename:  filepath.Join(src, file),
		Hash:      h,
		Imports:   imps,
		Externals: exts,
	})
}

func loadState() map[string]string {
	f, err := os.Open(stateFile)
	if err != nil {
		return map[string]string{}
	}
	defer f.Close()

	m := map[string]string{}
	err = json.NewDecoder(f).Decode(&m)
	if err != nil {
		log.Warnf("failed to read state: %v", err)
		return map[string]string{}
	}
	return m
}

func saveState(state map[string]string) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}

	os.WriteFile(stateFile, data, 0700)
}

// errList accumulates errors from the worker pool.
type errList struct {
	lock sync.Mutex
	errs *multierror.Error
}

func (e *errList) push(err error) {
	e.lock.Lock()
	e.errs = multierror.Append(e.errs, err)
	e.lock.Unlock()
}

func (e *errList) err() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.errs.ErrorOrNil()
}

func compileIgnore(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func ignored(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(filepath.ToSlash(path)) {
			return true
		}
	}
	return false
}

// Compile walks every source tree and compiles changed files across a worker
// pool. All failures are collected and returned together; the hash cache is
// only persisted on a fully clean pass.
func Compile(opts Options) error {
	popd := util.Pushd(opts.Root)
	defer popd()

	ignore, err := compileIgnore(opts.Ignore)
	if err != nil {
		return err
	}

	state := loadState()

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	os.MkdirAll(opts.Dst, 0700)

	wg := sync.WaitGroup{}
	errs := &errList{}
	paths := make(chan struct {
		path string
		src  string
	}, concurrency)

	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func(i int) {
			defer wg.Done()

			for path := range paths {
				t1 := time.Now()
				err := compileFile(path.src, opts.Dst, path.path, opts.Externals)
				if err != nil {
					errs.push(err)
				}
				log.Debugf("compile(%d): %s/%s -- %v (%v)", i, path.src, path.path, err, time.Since(t1))
			}
		}(i)
	}

	for _, src := range opts.Srcs {
		err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if ignored(ignore, path) {
				log.Debugf("compile: %s -- (ignored)", path)
				return nil
			}
			h, err := hash(path)
			if err != nil {
				return err
			}
			if state[path] == h {
				log.Debugf("compile: %s -- (cached)", path)
				return nil
			}
			state[path] = h

			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}

			paths <- struct {
				path string
				src  string
			}{
				path: rel,
				src:  src,
			}
			return nil
		})
		if err != nil {
			errs.push(err)
		}
	}

	close(paths)
	wg.Wait()

	if errs.err() == nil {
		saveState(state)
	}
	return errs.err()
}
