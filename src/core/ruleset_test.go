package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustLabel(t *testing.T, s string) Label {
	l, err := ParseLabel(s)
	assert.NoError(t, err)
	return l
}

func TestRuleSetAddAndRuleFor(t *testing.T) {
	rs := NewRuleSet()
	target := mustLabel(t, "package:hello/Built")
	dep := mustLabel(t, "checkout:hello/CheckedOut")
	assert.NoError(t, rs.Add(NewRule(target, nil, dep)))

	rule, ok := rs.RuleFor(target)
	assert.True(t, ok)
	assert.Equal(t, Labels{dep}, rule.DepList())
}

func TestRuleSetAddMergesExactTarget(t *testing.T) {
	rs := NewRuleSet()
	target := mustLabel(t, "package:hello/Built")
	dep1 := mustLabel(t, "checkout:hello/CheckedOut")
	dep2 := mustLabel(t, "checkout:other/CheckedOut")
	assert.NoError(t, rs.Add(NewRule(target, nil, dep1)))
	assert.NoError(t, rs.Add(NewRule(target, nil, dep2)))

	rule, ok := rs.RuleFor(target)
	assert.True(t, ok)
	assert.ElementsMatch(t, Labels{dep1, dep2}, rule.DepList())
}

func TestRuleSetAddRejectsConflictingActions(t *testing.T) {
	rs := NewRuleSet()
	target := mustLabel(t, "package:hello/Built")
	assert.NoError(t, rs.Add(NewRule(target, &MakePackageAction{Command: "make"})))
	err := rs.Add(NewRule(target, &MakePackageAction{Command: "make again"}))
	assert.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestEffectiveRuleUnionsWildcardMatches(t *testing.T) {
	rs := NewRuleSet()
	wildAll := mustLabel(t, "package:*{*}/PreConfig")
	wildRole := mustLabel(t, "package:hello{x86}/PreConfig")
	dep1 := mustLabel(t, "checkout:common/CheckedOut")
	dep2 := mustLabel(t, "checkout:hello/CheckedOut")
	assert.NoError(t, rs.Add(NewRule(wildAll, nil, dep1)))
	assert.NoError(t, rs.Add(NewRule(wildRole, nil, dep2)))

	target := mustLabel(t, "package:hello{x86}/PreConfig")
	eff, err := rs.EffectiveRule(target)
	assert.NoError(t, err)
	assert.ElementsMatch(t, Labels{dep1, dep2}, eff.DepList())
}

func TestEffectiveRuleRejectsTwoActions(t *testing.T) {
	rs := NewRuleSet()
	wild := mustLabel(t, "package:*{*}/Built")
	exact := mustLabel(t, "package:hello{x86}/Built")
	assert.NoError(t, rs.Add(NewRule(wild, &MakePackageAction{Command: "a"})))
	assert.NoError(t, rs.Add(NewRule(exact, &MakePackageAction{Command: "b"})))

	_, err := rs.EffectiveRule(mustLabel(t, "package:hello{x86}/Built"))
	assert.Error(t, err)
}

func TestRulesDependingOn(t *testing.T) {
	rs := NewRuleSet()
	pkg := mustLabel(t, "package:hello/Built")
	dep := mustLabel(t, "checkout:hello/CheckedOut")
	assert.NoError(t, rs.Add(NewRule(pkg, nil, dep)))

	deps := rs.RulesDependingOn(dep, true, true)
	assert.Len(t, deps, 1)
	assert.Equal(t, pkg, deps[0].Target)
}

func TestPreferredRulePicksFewestDeps(t *testing.T) {
	rs := NewRuleSet()
	narrow := mustLabel(t, "package:hello{x86}/Built")
	wide := mustLabel(t, "package:*{*}/Built")
	dep := mustLabel(t, "checkout:common/CheckedOut")
	assert.NoError(t, rs.Add(NewRule(wide, nil, dep)))
	assert.NoError(t, rs.Add(NewRule(narrow, nil)))

	matching := rs.RulesForTarget(narrow, false, true)
	assert.Len(t, matching, 2)

	best := rs.PreferredRule(matching)
	assert.Equal(t, narrow, best.Target)
}

func TestTargetsMatchingWildcard(t *testing.T) {
	rs := NewRuleSet()
	assert.NoError(t, rs.Add(NewRule(mustLabel(t, "package:a/Built"), nil)))
	assert.NoError(t, rs.Add(NewRule(mustLabel(t, "package:b/Built"), nil)))
	assert.NoError(t, rs.Add(NewRule(mustLabel(t, "checkout:a/CheckedOut"), nil)))

	matches := rs.TargetsMatching(mustLabel(t, "package:*/Built"), true)
	assert.Len(t, matches, 2)
}
