package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Flameeyes/muddle/src/cmap"
)

// labelKeyHash hashes a LabelKey with xxhash, the way Please's package
// map indexes large label-keyed tables.
func labelKeyHash(k LabelKey) uint64 {
	return cmap.XXHashes(k.Kind, k.Domain, k.Name, k.Role, k.Tag)
}

// A RuleSet is the map of every Label a build description has declared a
// Rule for. Lookups interpret both stored keys and query labels under the
// wildcard match relation (§4.1); only Add needs exclusive access, so it's
// guarded by a dedicated mutex while reads go through the cmap, whose
// shards carry their own locks.
type RuleSet struct {
	rules   *cmap.Map[LabelKey, *Rule]
	addLock sync.Mutex
}

// NewRuleSet returns an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: cmap.New[LabelKey, *Rule](cmap.DefaultShardCount, labelKeyHash)}
}

// Add inserts rule, or merges it into any existing rule for the same exact
// target (union of deps; non-nil action wins over nil; two distinct
// non-nil actions is a Configuration error).
func (rs *RuleSet) Add(rule *Rule) error {
	rs.addLock.Lock()
	defer rs.addLock.Unlock()
	key := rule.Target.AsKey()
	if existing := rs.rules.Get(key); existing != nil {
		return existing.Merge(rule)
	}
	rs.rules.Set(key, rule.clone())
	return nil
}

// RuleFor does an exact lookup, with no wildcard expansion.
func (rs *RuleSet) RuleFor(l Label) (*Rule, bool) {
	r := rs.rules.Get(l.AsKey())
	return r, r != nil
}

// all returns every stored rule, sorted by target for deterministic iteration.
func (rs *RuleSet) all() []*Rule {
	rules := rs.rules.Values()
	sort.Slice(rules, func(i, j int) bool { return rules[i].Target.Less(rules[j].Target) })
	return rules
}

// RulesForTarget returns rules whose key relates to q under the selected
// relation: if useMatch, every rule whose key Match(key, q) succeeds
// (wildcard-aware); else if useTags, the single exact match (if any);
// else, every rule matching ignoring tag.
func (rs *RuleSet) RulesForTarget(q Label, useTags, useMatch bool) []*Rule {
	if useMatch {
		var out []*Rule
		for _, r := range rs.all() {
			if _, ok := Match(r.Target, q); ok {
				out = append(out, r)
			}
		}
		return out
	}
	if useTags {
		if r, ok := rs.RuleFor(q); ok {
			return []*Rule{r}
		}
		return nil
	}
	var out []*Rule
	for _, r := range rs.all() {
		if MatchWithoutTag(r.Target, q) {
			out = append(out, r)
		}
	}
	return out
}

// TargetsMatching returns the keys (not rules) that relate to q.
func (rs *RuleSet) TargetsMatching(q Label, useMatch bool) Labels {
	var out Labels
	for _, r := range rs.all() {
		if useMatch {
			if _, ok := Match(r.Target, q); ok {
				out = append(out, r.Target)
			}
		} else if MatchWithoutTag(r.Target, q) {
			out = append(out, r.Target)
		}
	}
	return out.Sort()
}

// RulesDependingOn returns every rule with at least one dep relating to q
// under the selected relation.
func (rs *RuleSet) RulesDependingOn(q Label, useTags, useMatch bool) []*Rule {
	var out []*Rule
	for _, r := range rs.all() {
		for _, dep := range r.DepList() {
			var matched bool
			switch {
			case useMatch:
				_, matched = Match(dep, q)
			case useTags:
				matched = dep.AsKey() == q.AsKey()
			default:
				matched = MatchWithoutTag(dep, q)
			}
			if matched {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// PreferredRule chooses "the" rule to show for a target in human-facing
// diagnostics (e.g. `muddle query rule`) when more than one rule matches:
// the one with the fewest direct dependencies. Build semantics never call
// this; a target is always built against the union of every matching
// rule's deps (EffectiveRule), never against a single "preferred" one.
// There's no principled way to pick between two equally-dependent
// candidates, so ties keep whichever came first in rules.
func (rs *RuleSet) PreferredRule(rules []*Rule) *Rule {
	var best *Rule
	for _, r := range rules {
		if best == nil || len(r.DepList()) < len(best.DepList()) {
			best = r
		}
	}
	return best
}

// EffectiveRule computes the rule actually used to build target: the union
// of deps over every rule whose key matches target (§4.2's "union over all
// matching rules" policy), and the single action supplied by any of them.
// Two matching rules both supplying a non-nil action is a Configuration
// error (§9).
func (rs *RuleSet) EffectiveRule(target Label) (*Rule, error) {
	matching := rs.RulesForTarget(target, false, true)
	if len(matching) == 0 {
		return nil, nil
	}
	eff := &Rule{Target: target, Deps: map[LabelKey]Label{}}
	for _, r := range matching {
		for k, d := range r.Deps {
			eff.Deps[k] = d
		}
		if r.Action == nil {
			continue
		}
		if eff.Action != nil && eff.Action != r.Action {
			return nil, &ConfigurationError{Message: fmt.Sprintf("multiple rules matching %s supply an action", target)}
		}
		eff.Action = r.Action
	}
	return eff, nil
}
