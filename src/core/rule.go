package core

import "fmt"

// A Rule says how to reach Target: first reach every label in Deps, then
// run Action (if any). Deps is a set, keyed by LabelKey to dedup while
// still keeping the full Label (including its flags) around.
type Rule struct {
	Target Label
	Action Action
	Deps   map[LabelKey]Label
}

// NewRule returns a Rule for target with the given action and initial deps.
func NewRule(target Label, action Action, deps ...Label) *Rule {
	r := &Rule{Target: target, Action: action, Deps: map[LabelKey]Label{}}
	for _, d := range deps {
		r.AddDep(d)
	}
	return r
}

// AddDep adds dep to this rule's dependency set.
func (r *Rule) AddDep(dep Label) {
	r.Deps[dep.AsKey()] = dep
}

// DepList returns this rule's deps as a sorted slice.
func (r *Rule) DepList() Labels {
	out := make(Labels, 0, len(r.Deps))
	for _, d := range r.Deps {
		out = append(out, d)
	}
	return out.Sort()
}

// Merge folds other into r: the union of both deps, with a non-nil action
// winning over a nil one. Two distinct non-nil actions is a Configuration
// error: rules are only merged when they share an exact target, and a
// build description that supplies two actions for one target
// is contradictory by construction, not a wildcard ambiguity.
func (r *Rule) Merge(other *Rule) error {
	for k, d := range other.Deps {
		r.Deps[k] = d
	}
	if other.Action == nil {
		return nil
	}
	if r.Action != nil && r.Action != other.Action {
		return &ConfigurationError{Message: fmt.Sprintf("two rules for %s both supply an action", r.Target)}
	}
	r.Action = other.Action
	return nil
}

// clone returns a deep-enough copy of r so that callers mutating the
// original afterwards can't alias internal state.
func (r *Rule) clone() *Rule {
	c := &Rule{Target: r.Target, Action: r.Action, Deps: make(map[LabelKey]Label, len(r.Deps))}
	for k, d := range r.Deps {
		c.Deps[k] = d
	}
	return c
}
