package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fragmentTestRules(t *testing.T) *RuleSet {
	rs := NewRuleSet()
	assert.NoError(t, rs.Add(NewRule(mustLabel(t, "package:hello{x86}/PreConfig"), nil)))
	assert.NoError(t, rs.Add(NewRule(mustLabel(t, "package:hello{arm}/PreConfig"), nil)))
	assert.NoError(t, rs.Add(NewRule(mustLabel(t, "checkout:hello/CheckedOut"), nil)))
	return rs
}

func TestResolveFragmentBareName(t *testing.T) {
	rs := fragmentTestRules(t)
	labels, err := ResolveFragment(rs, "hello", FragmentContext{Kind: Package, RequiredTag: Built})
	assert.NoError(t, err)
	assert.Len(t, labels, 2)
}

func TestResolveFragmentWithRole(t *testing.T) {
	rs := fragmentTestRules(t)
	labels, err := ResolveFragment(rs, "hello{x86}", FragmentContext{Kind: Package, RequiredTag: Built})
	assert.NoError(t, err)
	assert.Equal(t, Labels{mustLabel(t, "package:hello{x86}/Built")}, labels)
}

func TestResolveFragmentForcesTag(t *testing.T) {
	rs := fragmentTestRules(t)
	labels, err := ResolveFragment(rs, "package:hello{x86}/PreConfig", FragmentContext{Kind: Package, RequiredTag: Built})
	assert.NoError(t, err)
	assert.Equal(t, "Built", labels[0].Tag)
}

func TestResolveFragmentNoSuchLabel(t *testing.T) {
	rs := fragmentTestRules(t)
	_, err := ResolveFragment(rs, "nonexistent", FragmentContext{Kind: Package, RequiredTag: Built})
	assert.Error(t, err)
	var nsl *NoSuchLabelError
	assert.ErrorAs(t, err, &nsl)
}

func TestResolveFragmentDefaultRole(t *testing.T) {
	rs := fragmentTestRules(t)
	labels, err := ResolveFragment(rs, "hello", FragmentContext{Kind: Package, RequiredTag: Built, DefaultRole: "x86"})
	assert.NoError(t, err)
	assert.Equal(t, Labels{mustLabel(t, "package:hello{x86}/Built")}, labels)
}

func TestResolveFragmentAll(t *testing.T) {
	rs := fragmentTestRules(t)
	labels, err := ResolveFragment(rs, AllFragment, FragmentContext{Kind: Package, RequiredTag: Built})
	assert.NoError(t, err)
	assert.Len(t, labels, 2)
}
