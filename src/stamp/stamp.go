// Package stamp reads and writes the stamp file format: a snapshot of
// exactly which revision every checkout was at, suitable for reproducing a
// build tree elsewhere. Please has no equivalent artifact (its hermeticity
// comes from content hashing, which this engine does not use), so this is
// built fresh, reading with the same `gcfg` library core.Configuration
// uses and writing with an explicit order-stable writer since gcfg has no
// encoder.
package stamp

import (
	"bufio"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/please-build/gcfg"
)

// Checkout is one [CHECKOUT name] section.
type Checkout struct {
	Repository string
	Revision   string
	Relative   string
	Directory  string
	Domain     string
	CoLeaf     string `gcfg:"co_leaf"`
	Branch     string
}

// Domain is one [DOMAIN name] section.
type Domain struct {
	Repository  string
	Description string
}

// A Stamp is the decoded contents of a stamp file.
type Stamp struct {
	Version int
	Build   struct {
		Repository   string
		Description  string
		VersionsRepo string
	}
	Checkouts map[string]*Checkout
	Domains   map[string]*Domain

	// Partial records whether any checkout's revision could not be
	// determined when this Stamp was produced: such a stamp is written
	// with a .partial suffix and Unstamp refuses to load it without an
	// explicit override.
	Partial bool
}

// New returns an empty Stamp ready to have checkouts/domains added.
func New() *Stamp {
	return &Stamp{
		Version:   1,
		Checkouts: map[string]*Checkout{},
		Domains:   map[string]*Domain{},
	}
}

// gcfgStamp mirrors Stamp's shape with gcfg's subsection-map convention
// (`[CHECKOUT "name"]`), which is what the written file actually uses
// (see DESIGN.md for why the quoted form was chosen).
type gcfgStamp struct {
	Stamp struct {
		Version int
	}
	Build struct {
		Repository   string
		Description  string
		VersionsRepo string `gcfg:"versions_repo"`
	}
	Checkout map[string]*Checkout
	Domain   map[string]*Domain
}

// Read decodes a stamp file from path.
func Read(path string) (*Stamp, error) {
	var g gcfgStamp
	if err := gcfg.ReadFileInto(&g, path); err != nil {
		return nil, fmt.Errorf("stamp: reading %s: %w", path, err)
	}
	s := &Stamp{
		Version:   g.Stamp.Version,
		Checkouts: g.Checkout,
		Domains:   g.Domain,
	}
	if s.Checkouts == nil {
		s.Checkouts = map[string]*Checkout{}
	}
	if s.Domains == nil {
		s.Domains = map[string]*Domain{}
	}
	s.Build.Repository = g.Build.Repository
	s.Build.Description = g.Build.Description
	s.Build.VersionsRepo = g.Build.VersionsRepo
	s.Partial = strings.HasSuffix(path, ".partial")
	return s, nil
}

// Path returns the stamp file path for buildName under root, with a
// .partial suffix if partial is set.
func Path(root, buildName string, partial bool) string {
	p := root + "/versions/" + buildName + ".stamp"
	if partial {
		p += ".partial"
	}
	return p
}

// Write encodes s to path in order-stable form: the STAMP and BUILD
// sections with their keys in a fixed order, then CHECKOUT sections sorted
// by name, then DOMAIN sections sorted by name.
func Write(path string, s *Stamp) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "[STAMP]")
	fmt.Fprintf(w, "version = %d\n", s.Version)

	fmt.Fprintln(w, "[BUILD]")
	fmt.Fprintf(w, "repository = %s\n", s.Build.Repository)
	fmt.Fprintf(w, "description = %s\n", s.Build.Description)
	fmt.Fprintf(w, "versions_repo = %s\n", s.Build.VersionsRepo)

	for _, name := range sortedKeys(s.Checkouts) {
		co := s.Checkouts[name]
		fmt.Fprintf(w, "[CHECKOUT %q]\n", name)
		fmt.Fprintf(w, "repository = %s\n", co.Repository)
		fmt.Fprintf(w, "revision = %s\n", co.Revision)
		fmt.Fprintf(w, "relative = %s\n", co.Relative)
		fmt.Fprintf(w, "directory = %s\n", co.Directory)
		fmt.Fprintf(w, "domain = %s\n", co.Domain)
		fmt.Fprintf(w, "co_leaf = %s\n", co.CoLeaf)
		fmt.Fprintf(w, "branch = %s\n", co.Branch)
	}

	for _, name := range sortedDomainKeys(s.Domains) {
		d := s.Domains[name]
		fmt.Fprintf(w, "[DOMAIN %q]\n", name)
		fmt.Fprintf(w, "repository = %s\n", d.Repository)
		fmt.Fprintf(w, "description = %s\n", d.Description)
	}

	return w.Flush()
}

// Checksum returns the hex SHA-1 of path's contents, used to name
// stampless saves.
func Checksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return fmt.Sprintf("%x", sum), nil
}

// Save writes s to its canonical path under root, choosing the .partial
// suffix iff s.Partial is set.
func Save(root, buildName string, s *Stamp) (string, error) {
	path := Path(root, buildName, s.Partial)
	if err := Write(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// SaveStampless writes s under root without a caller-chosen name, naming
// it by its own content instead: it's written first under a throwaway
// uuid so two stampless saves racing on the same root never collide, then
// renamed to its SHA-1 checksum once the content (and so the final name)
// is known.
func SaveStampless(root string, s *Stamp) (string, error) {
	tmp := Path(root, "tmp-"+uuid.NewString(), s.Partial)
	if err := Write(tmp, s); err != nil {
		return "", err
	}
	sum, err := Checksum(tmp)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	final := Path(root, sum, s.Partial)
	if err := os.Rename(tmp, final); err != nil {
		return "", err
	}
	return final, nil
}

// Unstamp reads a previously saved stamp, refusing a .partial one unless
// allowPartial is set.
func Unstamp(path string, allowPartial bool) (*Stamp, error) {
	s, err := Read(path)
	if err != nil {
		return nil, err
	}
	if s.Partial && !allowPartial {
		return nil, fmt.Errorf("stamp: %s is a partial stamp (some checkout revision was unknown); it is only loaded when partial stamps are allowed", path)
	}
	return s, nil
}

func sortedKeys(m map[string]*Checkout) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedDomainKeys(m map[string]*Domain) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
