// Package capsule maps logical capsule names to on-disk files and owns the
// process-wide cache of open capsule handles.
package capsule

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Ext is the file extension for capsule files under the storage root.
const Ext = ".capsule"

// unsafeChars matches every character that may not appear in a capsule filename.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Sanitize replaces every character outside [A-Za-z0-9_-] with an underscore.
// Distinct names can collide after sanitization ("a/b" and "a_b" map to the
// same file); this is a documented limitation, not silently resolved.
func Sanitize(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// Resolver turns logical capsule names into paths under the storage root.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver for the given storage root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Root returns the storage root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the path for a capsule name. Deterministic: the same name
// always yields the same path.
func (r *Resolver) Resolve(name string) string {
	return filepath.Join(r.root, Sanitize(name)+Ext)
}

// Exists reports whether the capsule file for name is present on disk.
func (r *Resolver) Exists(name string) bool {
	_, err := os.Stat(r.Resolve(name))
	return err == nil
}

// EnsureRoot creates the storage root directory if absent. Idempotent.
func (r *Resolver) EnsureRoot() error {
	if err := os.MkdirAll(r.root, 0700); err != nil {
		return fmt.Errorf("failed to create storage root %s: %w", r.root, err)
	}
	return nil
}

// List enumerates capsule names in the storage root, sorted. The extension is
// stripped; files without it are ignored.
func (r *Resolver) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read storage root %s: %w", r.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, Ext))
	}
	sort.Strings(names)
	return names, nil
}
