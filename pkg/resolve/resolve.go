// Package resolve implements node style module resolution against a compiled
// output tree.
package resolve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var Extensions = []string{"js", "jsx", "tsx", "ts"}

// IsRelative reports whether name is a path specifier rather than a bare
// package specifier.
func IsRelative(name string) bool {
	return strings.HasPrefix(name, "../") || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "/")
}

// Resolve implements a basic node resolution algorithm. It returns a relative
// path to a file.
func Resolve(root, name string) (string, error) {
	if !IsRelative(name) {
		name = filepath.Join("node_modules", name)
	} else {
		name = filepath.Join(root, name)
	}

	st, err := os.Stat(name)
	if err != nil {
		for _, ext := range Extensions {
			st, err = os.Stat(name + "." + ext)
			if err == nil {
				name = name + "." + ext
				break
			}
		}
	}

	if st == nil {
		return "", fmt.Errorf("could not resolve: %q", name)
	}

	if st.IsDir() {
		_, err := os.Stat(filepath.Join(name, "package.json"))
		if err != nil && !os.IsNotExist(err) {
			return "", err
		}

		main := "index.js"
		if err == nil {
			f, err := os.Open(filepath.Join(name, "package.json"))
			if err != nil {
				return "", err
			}

			m := struct {
				Main string `json:"main"`
			}{}
			json.NewDecoder(f).Decode(&m)
			f.Close()

			if m.Main != "" {
				main = m.Main
			}
		}

		return filepath.Join(name, main), nil
	}

	return name, nil
}
