package core

import (
	"os"
	"path/filepath"
	"sync"
)

// A TagDatabase is the durable record of which non-transient labels have
// reached their tag: one empty marker file per label, under
// $R/.muddle/tags/<kind>/<domain-path?>/<name>/<role-or-"_">/<tag>.
// An in-memory mirror keyed the same way as RuleSet avoids re-statting
// the filesystem on every Has call during a single build.
type TagDatabase struct {
	root string

	mu    sync.Mutex
	cache map[LabelKey]bool
}

// NewTagDatabase returns a TagDatabase rooted at $R/.muddle/tags.
func NewTagDatabase(root string) *TagDatabase {
	return &TagDatabase{root: filepath.Join(root, ".muddle", "tags"), cache: map[LabelKey]bool{}}
}

func domainPath(domain string) string {
	if domain == "" {
		return ""
	}
	return domain
}

func rolePath(role string) string {
	if role == "" {
		return "_"
	}
	return role
}

// path returns the marker file path for l, ignoring Transient/System.
func (db *TagDatabase) path(l Label) string {
	parts := []string{db.root, l.Kind}
	if dp := domainPath(l.Domain); dp != "" {
		parts = append(parts, dp)
	}
	parts = append(parts, l.Name, rolePath(l.Role), l.Tag)
	return filepath.Join(parts...)
}

// Has reports whether l's tag has been reached. Transient labels are never
// considered reached, matching the builder contract (§4.4 step 1).
func (db *TagDatabase) Has(l Label) bool {
	if l.Transient {
		return false
	}
	key := l.AsKey()
	db.mu.Lock()
	if reached, ok := db.cache[key]; ok {
		db.mu.Unlock()
		return reached
	}
	db.mu.Unlock()

	_, err := os.Stat(db.path(l))
	reached := err == nil
	db.mu.Lock()
	db.cache[key] = reached
	db.mu.Unlock()
	return reached
}

// Set records l as reached. It's a no-op for transient labels.
func (db *TagDatabase) Set(l Label) error {
	if l.Transient {
		return nil
	}
	p := db.path(l)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	db.mu.Lock()
	db.cache[l.AsKey()] = true
	db.mu.Unlock()
	return nil
}

// Clear retracts l's tag, if any. It's always safe to call on an
// already-unreached label.
func (db *TagDatabase) Clear(l Label) error {
	if err := os.Remove(db.path(l)); err != nil && !os.IsNotExist(err) {
		return err
	}
	db.mu.Lock()
	db.cache[l.AsKey()] = false
	db.mu.Unlock()
	return nil
}
