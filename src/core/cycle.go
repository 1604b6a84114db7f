package core

// FindCycle looks for a concrete dependency cycle among candidates (and
// anything they transitively depend on), for CircularOrIncomplete
// diagnostics when the solver stalls. It returns nil if none is found —
// a stall without a cycle means some target genuinely has no matching
// rule for one of its deps once merged via EffectiveRule.
func FindCycle(rs *RuleSet, candidates Labels) []Label {
	cf := &cycleFinder{rs: rs, visiting: map[LabelKey]bool{}, visited: map[LabelKey]bool{}}
	for _, l := range candidates {
		if cf.visited[l.AsKey()] {
			continue
		}
		if cycle := cf.search(l); cycle != nil {
			return cycle
		}
	}
	return nil
}

// cycleFinder does a depth-first search over the dependency graph induced
// by EffectiveRule, tracking the current recursion stack to detect a
// back-edge into it.
type cycleFinder struct {
	rs       *RuleSet
	visiting map[LabelKey]bool
	visited  map[LabelKey]bool
	stack    []Label
}

func (cf *cycleFinder) search(l Label) []Label {
	key := l.AsKey()
	cf.visiting[key] = true
	cf.stack = append(cf.stack, l)
	defer func() {
		cf.visiting[key] = false
		cf.stack = cf.stack[:len(cf.stack)-1]
	}()

	eff, err := cf.rs.EffectiveRule(l)
	if err == nil && eff != nil {
		for _, dep := range eff.DepList() {
			dk := dep.AsKey()
			if cf.visiting[dk] {
				return cf.buildCycle(dep)
			}
			if cf.visited[dk] {
				continue
			}
			if cycle := cf.search(dep); cycle != nil {
				return cycle
			}
		}
	}
	cf.visited[key] = true
	return nil
}

// buildCycle reconstructs the cycle from the recursion stack once a
// back-edge into start has been found.
func (cf *cycleFinder) buildCycle(start Label) []Label {
	startKey := start.AsKey()
	for i, l := range cf.stack {
		if l.AsKey() == startKey {
			cycle := append([]Label{}, cf.stack[i:]...)
			return append(cycle, start)
		}
	}
	return []Label{start}
}
