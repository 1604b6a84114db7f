package license

import "github.com/Flameeyes/muddle/src/core"

// Reason names one path by which a checkout becomes implicitly GPL:
// Package was built against GPLCheckout, and also depends (directly) on
// the checkout the reason is attached to.
type Reason struct {
	Package     core.Label
	GPLCheckout core.Label
}

// ImplicitGPL records a checkout that is implicitly GPL because some
// package depends on it directly while being built against another
// checkout whose license propagates GPL. The checkout's own declared
// license, GPL-ish or not, does not exempt it.
type ImplicitGPL struct {
	Checkout core.Label
	Reasons  []Reason
}

// Report is the result of analyzing a build description's licensing.
type Report struct {
	Unlicensed core.Labels
	GPLish     core.Labels
	Implicit   []ImplicitGPL
	Clashes    core.Labels
}

// Analyze walks rules and reports license coverage, GPL propagation and
// clashes against the declarations in reg. It is a pure, read-only pass
// over the rule graph, built the way the dependency-analysis packages
// under src/ are: a function over *core.RuleSet returning a report
// struct, no mutation.
func Analyze(rules *core.RuleSet, reg *Registry) *Report {
	checkouts := allCheckouts(rules)

	report := &Report{}
	implicit := map[core.LabelKey]*ImplicitGPL{}

	for _, co := range checkouts {
		if l, ok := reg.License(co); ok {
			if l.IsGPLish() {
				report.GPLish = append(report.GPLish, co)
			}
		} else {
			report.Unlicensed = append(report.Unlicensed, co)
		}
	}

	for _, pkg := range allPackages(rules) {
		eff, err := rules.EffectiveRule(pkg)
		if err != nil || eff == nil {
			continue
		}
		used := reg.uses(rules, pkg)
		for _, dep := range eff.DepList() {
			if dep.Kind != core.Checkout {
				continue
			}
			for _, other := range used {
				if other.AsKey() == dep.AsKey() {
					continue
				}
				lic, ok := reg.License(other)
				if !ok || !lic.PropagatesGPL() {
					continue
				}
				key := dep.AsKey()
				rec, ok := implicit[key]
				if !ok {
					rec = &ImplicitGPL{Checkout: dep}
					implicit[key] = rec
				}
				rec.Reasons = append(rec.Reasons, Reason{Package: pkg, GPLCheckout: other})
			}
		}
	}

	for _, co := range checkouts {
		lic, declared := reg.License(co)
		_, isImplicit := implicit[co.AsKey()]
		if !isImplicit {
			continue
		}
		if declared && (lic.Kind == Binary || lic.Kind == Secret) {
			report.Clashes = append(report.Clashes, co)
		}
	}

	for _, rec := range implicit {
		report.Implicit = append(report.Implicit, *rec)
	}

	report.Unlicensed = report.Unlicensed.Sort()
	report.GPLish = report.GPLish.Sort()
	report.Clashes = report.Clashes.Sort()
	sortImplicit(report.Implicit)
	return report
}

// uses returns the checkouts transitively reachable from p, following
// effective-rule dependencies and cutting off any branch rooted at a
// checkout p is recorded as NotBuiltAgainst: that checkout, and anything
// only reachable through it, is excluded.
func (r *Registry) uses(rules *core.RuleSet, p core.Label) core.Labels {
	blocked := r.notBuiltAgainst[p.AsKey()]
	found := map[core.LabelKey]core.Label{}
	visited := map[core.LabelKey]bool{p.AsKey(): true}

	var walk func(l core.Label)
	walk = func(l core.Label) {
		eff, err := rules.EffectiveRule(l)
		if err != nil || eff == nil {
			return
		}
		for _, dep := range eff.DepList() {
			key := dep.AsKey()
			if blocked != nil && blocked[key] {
				continue
			}
			if dep.Kind == core.Checkout {
				found[key] = dep
			}
			if visited[key] {
				continue
			}
			visited[key] = true
			walk(dep)
		}
	}
	walk(p)

	out := make(core.Labels, 0, len(found))
	for _, l := range found {
		out = append(out, l)
	}
	return out.Sort()
}

func allCheckouts(rules *core.RuleSet) core.Labels {
	return rules.TargetsMatching(core.Label{Kind: core.Checkout, Domain: "*", Name: "*", Role: "*", Tag: "*"}, true)
}

func allPackages(rules *core.RuleSet) core.Labels {
	return rules.TargetsMatching(core.Label{Kind: core.Package, Domain: "*", Name: "*", Role: "*", Tag: "*"}, true)
}

func sortImplicit(recs []ImplicitGPL) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].Checkout.Less(recs[j-1].Checkout); j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}
