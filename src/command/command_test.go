package command

import (
	"context"
	"errors"
	"testing"

	"github.com/Flameeyes/muddle/src/core"
	"github.com/stretchr/testify/assert"
)

func mustLabel(t *testing.T, s string) core.Label {
	l, err := core.ParseLabel(s)
	assert.NoError(t, err)
	return l
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{Name: "build", Category: PackageC})
	cmd, ok := r.Lookup("build")
	assert.True(t, ok)
	assert.Equal(t, PackageC, cmd.Category)

	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{Name: "build"})
	assert.Panics(t, func() { r.Register(&Command{Name: "build"}) })
}

func TestInvokeJustPrintNeverRunsActions(t *testing.T) {
	ran := false
	cmd := &Command{Name: "build", Run: func(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error {
		ran = true
		return nil
	}}
	r := NewRegistry()
	b := core.NewBuilder(t.TempDir(), core.NewRuleSet())
	err := r.Invoke(context.Background(), cmd, b, core.Labels{mustLabel(t, "package:hello/Built")}, true, false)
	assert.NoError(t, err)
	assert.False(t, ran)
}

func TestInvokeCollectsWithoutStop(t *testing.T) {
	cmd := &Command{Name: "pull", StopAware: true, Run: func(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error {
		return errors.New("boom: " + labels[0].String())
	}}
	r := NewRegistry()
	b := core.NewBuilder(t.TempDir(), core.NewRuleSet())
	labels := core.Labels{mustLabel(t, "checkout:a/CheckedOut"), mustLabel(t, "checkout:b/CheckedOut")}
	err := r.Invoke(context.Background(), cmd, b, labels, false, false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestInvokeStopsImmediatelyWithStop(t *testing.T) {
	calls := 0
	cmd := &Command{Name: "pull", StopAware: true, Run: func(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error {
		calls++
		return errors.New("boom")
	}}
	r := NewRegistry()
	b := core.NewBuilder(t.TempDir(), core.NewRuleSet())
	labels := core.Labels{mustLabel(t, "checkout:a/CheckedOut"), mustLabel(t, "checkout:b/CheckedOut")}
	err := r.Invoke(context.Background(), cmd, b, labels, false, true)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBuiltinsRegistersStandardCommands(t *testing.T) {
	r := Builtins()
	for _, name := range []string{"checkout", "build", "install", "clean", "deploy", "query"} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, "missing command %q", name)
	}
}
