// Package license implements checkout licensing and GPL propagation
// analysis. It has no Please equivalent: Please's own AddLicence/Licences
// field on a BuildTarget is a flat per-target list with no propagation,
// so this is built directly from the Python muddled.licenses semantics
// exercised by its test suite.
package license

import (
	"sort"

	"github.com/Flameeyes/muddle/src/core"
)

// Kind classifies a License for propagation purposes.
type Kind int

const (
	Open Kind = iota
	GPL
	LGPL
	Binary
	Secret
)

// A License is a checkout's declared licensing terms.
type License struct {
	Name          string
	Kind          Kind
	WithException bool
}

// IsGPLish reports whether l is any GPL/LGPL variant.
func (l License) IsGPLish() bool {
	return l.Kind == GPL || l.Kind == LGPL
}

// PropagatesGPL reports whether a checkout under this license makes its
// consumers implicitly GPL: any GPL-ish license without an exception.
func (l License) PropagatesGPL() bool {
	return l.IsGPLish() && !l.WithException
}

// NewBinary returns a proprietary-binary license naming the customer or
// product it's restricted to.
func NewBinary(name string) License { return License{Name: name, Kind: Binary} }

// NewSecret returns a secret license naming the reason for restriction.
func NewSecret(name string) License { return License{Name: name, Kind: Secret} }

// Standard holds the well-known open-source licenses muddle build
// descriptions refer to by name (grounded on muddled.licenses.standard_licenses).
var Standard = map[string]License{
	"apache":       {Name: "apache", Kind: Open},
	"bsd-new":      {Name: "bsd-new", Kind: Open},
	"mpl":          {Name: "mpl", Kind: Open},
	"zlib":         {Name: "zlib", Kind: Open},
	"ukogl":        {Name: "ukogl", Kind: Open},
	"gpl2":         {Name: "gpl2", Kind: GPL},
	"gpl2plus":     {Name: "gpl2plus", Kind: GPL},
	"gpl3":         {Name: "gpl3", Kind: GPL},
	"gpl2-except":  {Name: "gpl2-except", Kind: GPL, WithException: true},
	"lgpl":         {Name: "lgpl", Kind: LGPL},
	"lgpl-except":  {Name: "lgpl-except", Kind: LGPL, WithException: true},
}

// A Registry records, for one build description, every checkout's
// declared license and every NotBuiltAgainst exception.
type Registry struct {
	licenses        map[core.LabelKey]License
	notBuiltAgainst map[core.LabelKey]map[core.LabelKey]bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		licenses:        map[core.LabelKey]License{},
		notBuiltAgainst: map[core.LabelKey]map[core.LabelKey]bool{},
	}
}

// SetLicense declares co's license.
func (r *Registry) SetLicense(co core.Label, l License) {
	r.licenses[co.AsKey()] = l
}

// License returns co's declared license, if any.
func (r *Registry) License(co core.Label) (License, bool) {
	l, ok := r.licenses[co.AsKey()]
	return l, ok
}

// NotBuiltAgainst records that pkg is not actually built against co, even
// though co is reachable in the dependency graph from pkg: co and any
// checkout only reachable through it are excluded from Uses(pkg).
func (r *Registry) NotBuiltAgainst(pkg, co core.Label) {
	m, ok := r.notBuiltAgainst[pkg.AsKey()]
	if !ok {
		m = map[core.LabelKey]bool{}
		r.notBuiltAgainst[pkg.AsKey()] = m
	}
	m[co.AsKey()] = true
}

// NotBuiltAgainstPair names one (package, checkout) exception recorded via
// NotBuiltAgainst.
type NotBuiltAgainstPair struct {
	Package  core.Label
	Checkout core.Label
}

// NotBuiltAgainstPairs returns every exception recorded in r, sorted by
// package then checkout for stable diagnostic output (`muddle query
// not-built-against`).
func (r *Registry) NotBuiltAgainstPairs() []NotBuiltAgainstPair {
	var out []NotBuiltAgainstPair
	for pkgKey, checkouts := range r.notBuiltAgainst {
		pkg := labelFromKey(pkgKey)
		for coKey := range checkouts {
			out = append(out, NotBuiltAgainstPair{Package: pkg, Checkout: labelFromKey(coKey)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package.AsKey() != out[j].Package.AsKey() {
			return out[i].Package.Less(out[j].Package)
		}
		return out[i].Checkout.Less(out[j].Checkout)
	})
	return out
}

func labelFromKey(k core.LabelKey) core.Label {
	return core.Label{Kind: k.Kind, Domain: k.Domain, Name: k.Name, Role: k.Role, Tag: k.Tag}
}
