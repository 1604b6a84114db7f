package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildChain(t *testing.T) *RuleSet {
	rs := NewRuleSet()
	co := mustLabel(t, "checkout:hello/CheckedOut")
	preConfig := mustLabel(t, "package:hello/PreConfig")
	built := mustLabel(t, "package:hello/Built")
	assert.NoError(t, rs.Add(NewRule(co, nil)))
	assert.NoError(t, rs.Add(NewRule(preConfig, nil, co)))
	assert.NoError(t, rs.Add(NewRule(built, nil, preConfig)))
	return rs
}

func TestNeededToBuildOrdersDependenciesFirst(t *testing.T) {
	rs := buildChain(t)
	rules, err := rs.NeededToBuild(mustLabel(t, "package:hello/Built"))
	assert.NoError(t, err)
	assert.Len(t, rules, 3)
	assert.Equal(t, "checkout:hello/CheckedOut", rules[0].Target.String())
	assert.Equal(t, "package:hello/PreConfig", rules[1].Target.String())
	assert.Equal(t, "package:hello/Built", rules[2].Target.String())
}

func TestNeededToBuildNoRuleFor(t *testing.T) {
	rs := NewRuleSet()
	_, err := rs.NeededToBuild(mustLabel(t, "package:nope/Built"))
	assert.Error(t, err)
	var nrf *NoRuleForError
	assert.ErrorAs(t, err, &nrf)
}

func TestNeededToBuildDetectsCycle(t *testing.T) {
	rs := NewRuleSet()
	a := mustLabel(t, "package:a/Built")
	b := mustLabel(t, "package:b/Built")
	assert.NoError(t, rs.Add(NewRule(a, nil, b)))
	assert.NoError(t, rs.Add(NewRule(b, nil, a)))

	_, err := rs.NeededToBuild(a)
	assert.Error(t, err)
	var cyc *CircularOrIncompleteError
	assert.ErrorAs(t, err, &cyc)
	assert.NotEmpty(t, cyc.Cycle)
}

func TestRequiredByIsReverseClosure(t *testing.T) {
	rs := buildChain(t)
	req := rs.RequiredBy(mustLabel(t, "checkout:hello/CheckedOut"))
	assert.ElementsMatch(t, Labels{
		mustLabel(t, "package:hello/PreConfig"),
		mustLabel(t, "package:hello/Built"),
	}, req)
}
