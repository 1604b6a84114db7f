package stamp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.stamp")

	s := New()
	s.Build.Repository = "git+https://example.com/root.git"
	s.Build.Description = "builds/01.py"
	s.Checkouts["hello"] = &Checkout{Repository: "git+https://example.com/hello.git", Revision: "abc123"}
	s.Domains["sub"] = &Domain{Repository: "git+https://example.com/sub.git", Description: "builds/02.py"}

	assert.NoError(t, Write(path, s))

	got, err := Read(path)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "git+https://example.com/root.git", got.Build.Repository)
	assert.Equal(t, "abc123", got.Checkouts["hello"].Revision)
	assert.Equal(t, "builds/02.py", got.Domains["sub"].Description)
}

func TestUnstampRefusesPartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.stamp.partial")
	s := New()
	assert.NoError(t, Write(path, s))

	_, err := Unstamp(path, false)
	assert.Error(t, err)

	got, err := Unstamp(path, true)
	assert.NoError(t, err)
	assert.True(t, got.Partial)
}

func TestSaveStamplessNamesByChecksum(t *testing.T) {
	dir := t.TempDir()
	s := New()
	s.Build.Repository = "git+https://example.com/root.git"

	path, err := SaveStampless(dir, s)
	assert.NoError(t, err)

	sum, err := Checksum(path)
	assert.NoError(t, err)
	assert.Contains(t, path, sum)

	entries, err := filepath.Glob(filepath.Join(dir, "versions", "tmp-*"))
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.stamp")
	assert.NoError(t, Write(path, New()))

	sum, err := Checksum(path)
	assert.NoError(t, err)
	assert.Len(t, sum, 40)
}
