package buildstate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key identifies a rule across runs by what it produces, so renumbered rule
// IDs keep their state.
func Key(outputs []string) string {
	sorted := append([]string(nil), outputs...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// Fingerprint hashes the executor, the params and the content of every
// input. Inputs are read relative to root; a missing input is an error.
// An executor that is a regular file (relative to root unless absolute)
// contributes its content too, so an updated script invalidates every rule
// it runs. Executors resolved through PATH contribute only their name.
func Fingerprint(root, executor, params string, inputs []string) (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "executor\x00%s\x00", executor)
	if path := resolve(root, executor); isRegular(path) {
		if err := hashFile(h, path); err != nil {
			return "", err
		}
	}
	fmt.Fprintf(h, "\x00params\x00%s\x00", params)
	for _, in := range inputs {
		fmt.Fprintf(h, "input\x00%s\x00", in)
		if err := hashFile(h, resolve(root, in)); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
