package instructions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadMissingFileIsEmpty(t *testing.T) {
	in, err := Read(filepath.Join(t.TempDir(), "nope.xml"))
	assert.NoError(t, err)
	assert.Empty(t, in.Chmods)
}

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x86.xml")
	in := &Instructions{
		Chmods: []Chmod{{Mode: "0755", FileSpec: FileSpec{Base: "bin", Glob: "*"}}},
	}
	assert.NoError(t, Write(path, in))

	got, err := Read(path)
	assert.NoError(t, err)
	assert.Equal(t, "0755", got.Chmods[0].Mode)
	assert.Equal(t, "bin", got.Chmods[0].FileSpec.Base)
}

func TestApplyChmod(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	target := filepath.Join(dir, "bin", "tool")
	assert.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	in := &Instructions{Chmods: []Chmod{{Mode: "0700", FileSpec: FileSpec{Base: "bin", Glob: "*"}}}}
	assert.NoError(t, Apply(in, dir))

	fi, err := os.Stat(target)
	assert.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
}

func TestFileSpecMatch(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "a.so"), nil, 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "b.txt"), nil, 0o644))

	fs := FileSpec{Base: "lib", Glob: "*.so"}
	matches, err := fs.Match(dir)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
}
