package core

import "sort"

// NeededToBuild computes a sequential list of rules whose actions, run in
// order, suffice to reach every target matching q:
//
//  1. Seed the pending set with every target matching q.
//  2. Repeatedly scan pending targets for ones whose EffectiveRule's deps
//     are all already satisfied; append those (in order) to the result
//     and move them to satisfied, queuing any newly-discovered deps.
//  3. Repeat until pending is empty (success) or a full pass neither marks
//     anything ready nor queues a new dep (failure: CircularOrIncomplete, with a best-effort
//     cycle extracted from the residual targets for diagnostics).
//
// A target with no matching rule at all is reported immediately as
// NoRuleFor rather than folded into the eventual stall, since it's known
// unsatisfiable the moment it's examined.
func (rs *RuleSet) NeededToBuild(q Label) ([]*Rule, error) {
	seed := rs.TargetsMatching(q, true)
	if len(seed) == 0 {
		return nil, &NoRuleForError{Label: q}
	}

	pending := map[LabelKey]Label{}
	for _, t := range seed {
		pending[t.AsKey()] = t
	}
	satisfied := map[LabelKey]bool{}
	resultSeen := map[LabelKey]bool{}
	var result []*Rule

	for len(pending) > 0 {
		progressed := false
		for _, k := range sortedKeys(pending) {
			t, ok := pending[k]
			if !ok {
				continue // already resolved earlier this pass
			}
			eff, err := rs.EffectiveRule(t)
			if err != nil {
				return nil, err
			}
			if eff == nil {
				return nil, &NoRuleForError{Label: t}
			}
			ready := true
			for _, dep := range eff.DepList() {
				dk := dep.AsKey()
				if satisfied[dk] {
					continue
				}
				ready = false
				if _, queued := pending[dk]; !queued {
					pending[dk] = dep
					progressed = true
				}
			}
			if !ready {
				continue
			}
			if !resultSeen[k] {
				result = append(result, eff)
				resultSeen[k] = true
			}
			satisfied[k] = true
			delete(pending, k)
			progressed = true
		}
		if !progressed {
			residual := make(Labels, 0, len(pending))
			for _, t := range pending {
				residual = append(residual, t)
			}
			residual.Sort()
			return nil, &CircularOrIncompleteError{
				Pending: residual,
				Partial: rulesToLabels(result),
				Cycle:   FindCycle(rs, residual),
			}
		}
	}
	return result, nil
}

// RequiredBy computes the reverse transitive closure of q: every label
// that, directly or indirectly via RulesDependingOn, needs q reached
// first.
func (rs *RuleSet) RequiredBy(q Label) Labels {
	visited := map[LabelKey]Label{}
	queue := []Label{q}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range rs.RulesDependingOn(cur, true, true) {
			k := r.Target.AsKey()
			if _, ok := visited[k]; ok {
				continue
			}
			visited[k] = r.Target
			queue = append(queue, r.Target)
		}
	}
	out := make(Labels, 0, len(visited))
	for _, l := range visited {
		out = append(out, l)
	}
	return out.Sort()
}

func sortedKeys(m map[LabelKey]Label) []LabelKey {
	keys := make([]LabelKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return m[keys[i]].Less(m[keys[j]]) })
	return keys
}

func rulesToLabels(rules []*Rule) Labels {
	out := make(Labels, len(rules))
	for i, r := range rules {
		out[i] = r.Target
	}
	return out
}
