package boilerplate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrPathRequired   = errors.New("path parameter is required")
	ErrPathNotAllowed = errors.New("access to this path is not allowed")
	ErrReadmeNotFound = errors.New("README.md not found")
)

// ReadmeName is the file served as a template preview.
const ReadmeName = "README.md"

// Entry is a directory found by List.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Files gives read access to template directories under a set of allowed roots.
type Files struct {
	fs      afero.Fs
	allowed []string
}

// NewFiles returns a reader restricted to the allowed roots.
func NewFiles(fs afero.Fs, allowed []string) *Files {
	roots := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if a = strings.TrimSpace(a); a != "" {
			roots = append(roots, filepath.Clean(a))
		}
	}
	return &Files{fs: fs, allowed: roots}
}

// Roots returns the allowed roots.
func (f *Files) Roots() []string {
	return append([]string(nil), f.allowed...)
}

// Allowed reports whether p lies inside one of the allowed roots. The path
// is cleaned first so ".." segments cannot escape a root.
func (f *Files) Allowed(p string) bool {
	clean := filepath.Clean(p)
	for _, root := range f.allowed {
		if clean == root || strings.HasPrefix(clean, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Readme returns the README of the template directory dir and the file's path.
func (f *Files) Readme(dir string) (content, readmePath string, err error) {
	if strings.TrimSpace(dir) == "" {
		return "", "", ErrPathRequired
	}
	if !f.Allowed(dir) {
		return "", "", ErrPathNotAllowed
	}
	readmePath = filepath.Join(filepath.Clean(dir), ReadmeName)
	data, err := afero.ReadFile(f.fs, readmePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", readmePath, ErrReadmeNotFound
		}
		return "", readmePath, fmt.Errorf("read %s: %w", readmePath, err)
	}
	return string(data), readmePath, nil
}

// List returns the sub-directories of base, sorted by name. An empty base
// lists the first allowed root.
func (f *Files) List(base string) ([]Entry, error) {
	if base == "" {
		if len(f.allowed) == 0 {
			return nil, ErrPathRequired
		}
		base = f.allowed[0]
	}
	if !f.Allowed(base) {
		return nil, ErrPathNotAllowed
	}
	infos, err := afero.ReadDir(f.fs, base)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", base, err)
	}
	out := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			out = append(out, Entry{Name: info.Name(), Path: filepath.Join(base, info.Name())})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
