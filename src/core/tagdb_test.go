package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagDatabaseSetAndHas(t *testing.T) {
	db := NewTagDatabase(t.TempDir())
	l := mustLabel(t, "checkout:hello/CheckedOut")
	assert.False(t, db.Has(l))
	assert.NoError(t, db.Set(l))
	assert.True(t, db.Has(l))
}

func TestTagDatabaseClear(t *testing.T) {
	db := NewTagDatabase(t.TempDir())
	l := mustLabel(t, "checkout:hello/CheckedOut")
	assert.NoError(t, db.Set(l))
	assert.NoError(t, db.Clear(l))
	assert.False(t, db.Has(l))
}

func TestTagDatabaseTransientNeverReached(t *testing.T) {
	db := NewTagDatabase(t.TempDir())
	l := mustLabel(t, "checkout:hello/CheckedOut")
	l.Transient = true
	assert.NoError(t, db.Set(l))
	assert.False(t, db.Has(l))
}

func TestTagDatabasePathLayout(t *testing.T) {
	db := NewTagDatabase("/tmp/muddle-root")
	l := mustLabel(t, "package:(dom)hello{x86}/Built")
	assert.Equal(t, "/tmp/muddle-root/.muddle/tags/package/dom/hello/x86/Built", db.path(l))

	l2 := mustLabel(t, "checkout:hello/CheckedOut")
	assert.Equal(t, "/tmp/muddle-root/.muddle/tags/checkout/hello/_/CheckedOut", db.path(l2))
}
