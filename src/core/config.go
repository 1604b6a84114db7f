package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/please-build/gcfg"
)

// RootRepositoryFile, DescriptionFile and VersionsRepositoryFile are the
// three one-line plain-text files under .muddle/ that identify a build
// tree; they predate any ini-style config and are read and written
// directly rather than through gcfg.
const (
	RootRepositoryFile     = "RootRepository"
	DescriptionFile        = "Description"
	VersionsRepositoryFile = "VersionsRepository"
)

// ConfigFileName is the optional ini-style settings file under .muddle/,
// read with gcfg the way Please's core.Configuration is.
const ConfigFileName = "muddle.conf"

// A RootConfig is the identity of a build tree: where its default
// checkout comes from, where the build description script lives within
// it, and where (if anywhere) build-description versions are pinned.
type RootConfig struct {
	RootRepository     string
	Description        string
	VersionsRepository string
}

func muddleDir(root string) string {
	return filepath.Join(root, ".muddle")
}

func readOneLiner(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0]), nil
}

func writeOneLiner(path, value string) error {
	return os.WriteFile(path, []byte(value+"\n"), 0o644)
}

// ReadRootConfig reads the three one-line identity files from $R/.muddle/.
func ReadRootConfig(root string) (*RootConfig, error) {
	dir := muddleDir(root)
	rootRepo, err := readOneLiner(filepath.Join(dir, RootRepositoryFile))
	if err != nil {
		return nil, err
	}
	description, err := readOneLiner(filepath.Join(dir, DescriptionFile))
	if err != nil {
		return nil, err
	}
	versionsRepo, _ := readOneLiner(filepath.Join(dir, VersionsRepositoryFile))
	return &RootConfig{RootRepository: rootRepo, Description: description, VersionsRepository: versionsRepo}, nil
}

// WriteRootConfig initialises $R/.muddle/ with the three identity files,
// as `muddle init` does.
func WriteRootConfig(root string, c *RootConfig) error {
	dir := muddleDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeOneLiner(filepath.Join(dir, RootRepositoryFile), c.RootRepository); err != nil {
		return err
	}
	if err := writeOneLiner(filepath.Join(dir, DescriptionFile), c.Description); err != nil {
		return err
	}
	return writeOneLiner(filepath.Join(dir, VersionsRepositoryFile), c.VersionsRepository)
}

// Configuration holds the optional settings read from $R/.muddle/muddle.conf,
// an ini file in the style of Please's .plzconfig. Every field has a
// usable zero value, so a build tree with no muddle.conf at all behaves
// the same as one with every section present but empty.
type Configuration struct {
	Build struct {
		// DefaultRole is used to resolve a fragment's role when the
		// command doesn't specify one and the label is ambiguous.
		DefaultRole string
	}
	Distribute struct {
		// SecretBuildFiles lists build-description-local files, relative
		// to $R. Distributor.Plan does not consult it, so distributions do
		// not exclude these files.
		SecretBuildFiles []string
	}
}

// ReadConfig reads $R/.muddle/muddle.conf if it exists; a missing file is
// not an error.
func ReadConfig(root string) (*Configuration, error) {
	c := &Configuration{}
	path := filepath.Join(muddleDir(root), ConfigFileName)
	if err := gcfg.ReadFileInto(c, path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return c, nil
}
