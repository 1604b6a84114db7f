// Package instructions decodes the per-(package,role) instruction files
// CPIO and image deploy actions consult for ownership/permission fixups.
// Please has no equivalent: its build targets ship files exactly as the
// sandbox produced them, so this is implemented directly against a small
// closed XML schema, using only encoding/xml.
package instructions

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Chmod sets mode on every file matching FileSpec.
type Chmod struct {
	Mode     string   `xml:"mode,attr"`
	FileSpec FileSpec `xml:"filespec"`
}

// Chown sets owning user/group on every file matching FileSpec.
type Chown struct {
	User     string   `xml:"user,attr"`
	Group    string   `xml:"group,attr"`
	FileSpec FileSpec `xml:"filespec"`
}

// Mknod creates a device node at Filename.
type Mknod struct {
	Type     string `xml:"type,attr"`
	Major    int    `xml:"major,attr"`
	Minor    int    `xml:"minor,attr"`
	Mode     string `xml:"mode,attr"`
	UID      int    `xml:"uid,attr"`
	GID      int    `xml:"gid,attr"`
	Filename string `xml:"filename"`
}

// FileSpec is a glob-with-base applied over a virtual tree: Base is the
// directory the glob is rooted at, Glob the pattern within it.
type FileSpec struct {
	Base string `xml:"base,attr"`
	Glob string `xml:",chardata"`
}

// Match returns the paths under root that FileSpec selects.
func (fs FileSpec) Match(root string) ([]string, error) {
	pattern := filepath.Join(root, fs.Base, fs.Glob)
	return filepath.Glob(pattern)
}

// Instructions is the decoded contents of one <instructions> document.
type Instructions struct {
	XMLName xml.Name `xml:"instructions"`
	Chmods  []Chmod  `xml:"chmod"`
	Chowns  []Chown  `xml:"chown"`
	Mknods  []Mknod  `xml:"mknod"`
}

// Read decodes the instruction file at path. A missing file is not an
// error: it means the package has no post-install fixups.
func Read(path string) (*Instructions, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Instructions{}, nil
	}
	if err != nil {
		return nil, err
	}
	var in Instructions
	if err := xml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("instructions: parsing %s: %w", path, err)
	}
	return &in, nil
}

// Apply runs every instruction in in against files under root.
func Apply(in *Instructions, root string) error {
	for _, c := range in.Chmods {
		mode, err := strconv.ParseUint(c.Mode, 8, 32)
		if err != nil {
			return fmt.Errorf("instructions: bad chmod mode %q: %w", c.Mode, err)
		}
		paths, err := c.FileSpec.Match(root)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if err := os.Chmod(p, os.FileMode(mode)); err != nil {
				return err
			}
		}
	}
	for _, c := range in.Chowns {
		uid, gid, err := lookupOwner(c.User, c.Group)
		if err != nil {
			return err
		}
		paths, err := c.FileSpec.Match(root)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if err := os.Chown(p, uid, gid); err != nil {
				return err
			}
		}
	}
	for _, n := range in.Mknods {
		if err := mknod(filepath.Join(root, n.Filename), n); err != nil {
			return err
		}
	}
	return nil
}

// Write encodes in to path, creating parent directories as needed.
func Write(path string, in *Instructions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := xml.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
