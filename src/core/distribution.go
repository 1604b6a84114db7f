package core

import (
	"path/filepath"

	"github.com/Flameeyes/muddle/src/distribute"
)

type checkoutDescriptor struct {
	withVCS bool
}

type packageDescriptor struct {
	binary, source, withVCS bool
}

type checkoutEntry struct {
	label  Label
	byDist map[string]*checkoutDescriptor
}

type packageEntry struct {
	label  Label
	byDist map[string]*packageDescriptor
}

// A Distributor accumulates per-label distribution requests and turns
// them into copy manifests. Re-requesting a descriptor for the same label
// upgrades in-place: binary/source/with_vcs compose by
// OR, independently per distribution name.
type Distributor struct {
	checkouts map[LabelKey]*checkoutEntry
	packages  map[LabelKey]*packageEntry
}

// NewDistributor returns an empty Distributor.
func NewDistributor() *Distributor {
	return &Distributor{checkouts: map[LabelKey]*checkoutEntry{}, packages: map[LabelKey]*packageEntry{}}
}

// RequestCheckout records that co's source tree should be copied into
// distribution, optionally keeping its VCS metadata directory.
func (d *Distributor) RequestCheckout(co Label, distribution string, withVCS bool) {
	e, ok := d.checkouts[co.AsKey()]
	if !ok {
		e = &checkoutEntry{label: co, byDist: map[string]*checkoutDescriptor{}}
		d.checkouts[co.AsKey()] = e
	}
	desc, ok := e.byDist[distribution]
	if !ok {
		desc = &checkoutDescriptor{}
		e.byDist[distribution] = desc
	}
	desc.withVCS = desc.withVCS || withVCS
}

// RequestPackage records that pkg should be distributed: binary copies its
// obj/install trees, source expands to every checkout pkg directly depends
// on.
func (d *Distributor) RequestPackage(pkg Label, distribution string, binary, source, withVCS bool) {
	e, ok := d.packages[pkg.AsKey()]
	if !ok {
		e = &packageEntry{label: pkg, byDist: map[string]*packageDescriptor{}}
		d.packages[pkg.AsKey()] = e
	}
	desc, ok := e.byDist[distribution]
	if !ok {
		desc = &packageDescriptor{}
		e.byDist[distribution] = desc
	}
	desc.binary = desc.binary || binary
	desc.source = desc.source || source
	desc.withVCS = desc.withVCS || withVCS
}

// Plan computes the copy manifests for distribution against b's build
// tree and rule graph.
func (d *Distributor) Plan(b *Builder, distribution string) ([]distribute.Manifest, error) {
	var manifests []distribute.Manifest
	seen := map[LabelKey]bool{}

	addCheckout := func(co Label, withVCS bool) {
		if seen[co.AsKey()] {
			return
		}
		seen[co.AsKey()] = true
		m := distribute.Manifest{
			SrcDir: b.CheckoutDir(co),
			DstDir: filepath.Join(b.Root, "distribute", distribution, "src", co.Name),
		}
		if !withVCS {
			if dir, ok := b.VCSDirName(co); ok {
				m.Exclusions = append(m.Exclusions, dir)
			} else {
				m.Exclusions = append(m.Exclusions, distribute.DefaultVCSExclusions...)
			}
		}
		manifests = append(manifests, m)
	}

	for _, e := range d.checkouts {
		if desc, ok := e.byDist[distribution]; ok {
			addCheckout(e.label, desc.withVCS)
		}
	}
	for _, e := range d.packages {
		desc, ok := e.byDist[distribution]
		if !ok {
			continue
		}
		if desc.binary {
			manifests = append(manifests,
				distribute.Manifest{
					SrcDir: ObjDir(b.Root, e.label),
					DstDir: filepath.Join(b.Root, "distribute", distribution, "obj", e.label.Name, rolePath(e.label.Role)),
				},
				distribute.Manifest{
					SrcDir: InstallDir(b.Root, e.label.Role),
					DstDir: filepath.Join(b.Root, "distribute", distribution, "install", rolePath(e.label.Role)),
				},
			)
		}
		if desc.source {
			eff, err := b.Rules.EffectiveRule(e.label)
			if err != nil {
				return nil, err
			}
			if eff != nil {
				for _, dep := range eff.DepList() {
					if dep.Kind == Checkout {
						addCheckout(dep, desc.withVCS)
					}
				}
			}
		}
	}
	return manifests, nil
}

// DistributionRoot is where Plan places a distribution's manifests by
// default: $R/distribute/<name>.
func DistributionRoot(root, distribution string) string {
	return filepath.Join(root, "distribute", distribution)
}

// Rebase rewrites every manifest's DstDir from under oldRoot to under
// newRoot, preserving the relative structure Plan built. Used when a
// command names an explicit output directory instead of accepting the
// default $R/distribute/<name> location.
func Rebase(manifests []distribute.Manifest, oldRoot, newRoot string) []distribute.Manifest {
	if newRoot == "" || newRoot == oldRoot {
		return manifests
	}
	out := make([]distribute.Manifest, len(manifests))
	for i, m := range manifests {
		rel, err := filepath.Rel(oldRoot, m.DstDir)
		if err != nil {
			rel = "."
		}
		m.DstDir = filepath.Join(newRoot, rel)
		out[i] = m
	}
	return out
}
