// Package distribute copies trees of files into a distribution directory,
// the tree-copy primitive used once a Manifest has been planned. It knows
// nothing about labels, licenses or build descriptions; it just copies,
// honouring a set of excluded base names (typically VCS metadata
// directories).
package distribute

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("distribute")

// A Manifest is one copy operation: everything under SrcDir is copied to
// DstDir, except entries whose base name appears in Exclusions.
type Manifest struct {
	SrcDir     string
	DstDir     string
	Exclusions []string
}

// Execute runs every manifest in order, creating DstDir as needed.
func Execute(manifests []Manifest) error {
	for _, m := range manifests {
		if err := m.execute(); err != nil {
			return err
		}
	}
	return nil
}

func (m Manifest) excluded(base string) bool {
	for _, x := range m.Exclusions {
		if x == base {
			return true
		}
	}
	return false
}

func (m Manifest) execute() error {
	info, err := os.Lstat(m.SrcDir)
	if os.IsNotExist(err) {
		log.Warningf("nothing to distribute at %s, skipping", m.SrcDir)
		return nil
	} else if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(m.SrcDir, m.DstDir, info.Mode())
	}
	return godirwalk.Walk(m.SrcDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			rel, err := filepath.Rel(m.SrcDir, path)
			if err != nil {
				return err
			}
			if rel != "." && m.excluded(filepath.Base(path)) {
				if de.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			dest := filepath.Join(m.DstDir, rel)
			if de.IsDir() {
				return os.MkdirAll(dest, 0o755)
			}
			fi, err := os.Lstat(path)
			if err != nil {
				return err
			}
			return copyFile(path, dest, fi.Mode())
		},
	})
}

func copyFile(from, to string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	if mode&os.ModeSymlink != 0 {
		link, err := os.Readlink(from)
		if err != nil {
			return err
		}
		_ = os.Remove(to)
		return os.Symlink(link, to)
	}
	data, err := os.ReadFile(from)
	if err != nil {
		return err
	}
	return os.WriteFile(to, data, mode.Perm())
}

// DefaultVCSExclusions is the conventional set of VCS metadata directory
// names, used when a checkout's adapter doesn't report one explicitly.
var DefaultVCSExclusions = []string{".git", ".bzr", ".svn"}
