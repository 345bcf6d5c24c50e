package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
)

// Object is the metadata emitted next to every compiled module as a ".o"
// file. Filename and Imports are paths relative to the build root; Externals
// are bare specifiers mapped to globals at link time.
type Object struct {
	Filename  string
	Hash      string
	Imports   []string
	Externals []string
}

func WriteObjectFile(path string, o Object) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path+".o", data, 0777)
}

func ReadObjectFile(file string) (Object, error) {
	data, err := os.ReadFile(file + ".o")
	if err != nil {
		return Object{}, err
	}
	o := Object{}
	err = json.Unmarshal(data, &o)
	return o, err
}

func hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
