package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabelFullForm(t *testing.T) {
	l, err := ParseLabel("package:(sub.domain)hello{x86}/Built")
	assert.NoError(t, err)
	assert.Equal(t, "package", l.Kind)
	assert.Equal(t, "sub.domain", l.Domain)
	assert.Equal(t, "hello", l.Name)
	assert.Equal(t, "x86", l.Role)
	assert.Equal(t, "Built", l.Tag)
}

func TestParseLabelMinimalForm(t *testing.T) {
	l, err := ParseLabel("checkout:hello/CheckedOut")
	assert.NoError(t, err)
	assert.Equal(t, "checkout", l.Kind)
	assert.Equal(t, "", l.Domain)
	assert.Equal(t, "", l.Role)
}

func TestParseLabelRejectsEmptyDomain(t *testing.T) {
	_, err := ParseLabel("checkout:()hello/CheckedOut")
	assert.Error(t, err)
}

func TestParseLabelFlags(t *testing.T) {
	l, err := ParseLabel("package:hello{x86}/Built[TS]")
	assert.NoError(t, err)
	assert.True(t, l.Transient)
	assert.True(t, l.System)
}

func TestLabelStringRoundTrips(t *testing.T) {
	for _, s := range []string{
		"checkout:hello/CheckedOut",
		"package:(dom)hello{x86}/Built",
		"deployment:image/Deployed[T]",
	} {
		l, err := ParseLabel(s)
		assert.NoError(t, err)
		assert.Equal(t, s, l.String())
	}
}

func TestLabelEqualIgnoresFlags(t *testing.T) {
	a, _ := ParseLabel("package:hello/Built")
	b, _ := ParseLabel("package:hello/Built[T]")
	assert.True(t, a.Equal(b))
}

func TestMatchExact(t *testing.T) {
	a, _ := ParseLabel("package:hello{x86}/Built")
	b, _ := ParseLabel("package:hello{x86}/Built")
	score, ok := Match(a, b)
	assert.True(t, ok)
	assert.Equal(t, 0, score)
}

func TestMatchWildcardRole(t *testing.T) {
	a, _ := ParseLabel("package:hello{*}/Built")
	b, _ := ParseLabel("package:hello{x86}/Built")
	score, ok := Match(a, b)
	assert.True(t, ok)
	assert.Equal(t, -1, score)
}

func TestMatchConflict(t *testing.T) {
	a, _ := ParseLabel("package:hello{x86}/Built")
	b, _ := ParseLabel("package:hello{arm}/Built")
	_, ok := Match(a, b)
	assert.False(t, ok)
}

func TestMatchWithoutTagIgnoresTag(t *testing.T) {
	a, _ := ParseLabel("package:hello{x86}/Built")
	b, _ := ParseLabel("package:hello{x86}/PreConfig")
	assert.True(t, MatchWithoutTag(a, b))
}

func TestLabelsSort(t *testing.T) {
	b, _ := ParseLabel("package:hello/Built")
	a, _ := ParseLabel("checkout:hello/CheckedOut")
	labels := Labels{b, a}.Sort()
	assert.Equal(t, a, labels[0])
	assert.Equal(t, b, labels[1])
}

func TestLabelUnmarshalFlag(t *testing.T) {
	var l Label
	assert.NoError(t, l.UnmarshalFlag("package:hello/Built"))
	assert.Equal(t, "hello", l.Name)
	assert.Error(t, l.UnmarshalFlag("not a label"))
}
