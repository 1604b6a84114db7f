package license

import (
	"testing"

	"github.com/Flameeyes/muddle/src/core"
	"github.com/stretchr/testify/assert"
)

func mustLabel(t *testing.T, s string) core.Label {
	l, err := core.ParseLabel(s)
	assert.NoError(t, err)
	return l
}

func TestPropagatesGPL(t *testing.T) {
	assert.True(t, Standard["gpl2"].PropagatesGPL())
	assert.True(t, Standard["lgpl"].PropagatesGPL())
	assert.False(t, Standard["gpl2-except"].PropagatesGPL())
	assert.False(t, Standard["lgpl-except"].PropagatesGPL())
	assert.False(t, Standard["apache"].PropagatesGPL())
	assert.False(t, NewBinary("Customer").PropagatesGPL())
}

// buildChain wires checkout -> package{role} -> target in the shape
// add_package() produces, returning the checkout and package labels.
func buildChain(t *testing.T, rs *core.RuleSet, name, role string, deps ...core.Label) (core.Label, core.Label) {
	co := mustLabel(t, "checkout:"+name+"/CheckedOut")
	pkg := mustLabel(t, "package:"+name+"{"+role+"}/Built")
	assert.NoError(t, rs.Add(core.NewRule(co, nil)))
	assert.NoError(t, rs.Add(core.NewRule(pkg, nil, append([]core.Label{co}, deps...)...)))
	return co, pkg
}

func TestAnalyzeUnlicensed(t *testing.T) {
	rs := core.NewRuleSet()
	co, _ := buildChain(t, rs, "gnulibc", "x86")
	reg := NewRegistry()

	report := Analyze(rs, reg)
	assert.Contains(t, report.Unlicensed, co)
}

func TestAnalyzeGPLish(t *testing.T) {
	rs := core.NewRuleSet()
	co, _ := buildChain(t, rs, "gpl2plus", "x86")
	reg := NewRegistry()
	reg.SetLicense(co, Standard["gpl2plus"])

	report := Analyze(rs, reg)
	assert.Contains(t, report.GPLish, co)
	assert.NotContains(t, report.Unlicensed, co)
}

func TestAnalyzeImplicitGPL(t *testing.T) {
	rs := core.NewRuleSet()
	gplCo, _ := buildChain(t, rs, "gpl2plus", "x86")
	libcCo, libcPkg := buildChain(t, rs, "gnulibc", "x86")
	_ = libcPkg
	// secret1 links gnulibc alongside the GPL checkout: gnulibc becomes
	// implicitly GPL through this package, mirroring
	// add_package(builder, 'secret1', 'x86', deps=['gnulibc', 'gpl2plus']).
	appCo := mustLabel(t, "checkout:secret1/CheckedOut")
	appPkg := mustLabel(t, "package:secret1{x86}/Built")
	assert.NoError(t, rs.Add(core.NewRule(appCo, nil)))
	assert.NoError(t, rs.Add(core.NewRule(appPkg, nil, appCo, libcCo, gplCo)))

	reg := NewRegistry()
	reg.SetLicense(gplCo, Standard["gpl2plus"])

	report := Analyze(rs, reg)
	var found bool
	for _, imp := range report.Implicit {
		if imp.Checkout.AsKey() == libcCo.AsKey() {
			found = true
			assert.Len(t, imp.Reasons, 1)
			assert.Equal(t, appPkg.AsKey(), imp.Reasons[0].Package.AsKey())
			assert.Equal(t, gplCo.AsKey(), imp.Reasons[0].GPLCheckout.AsKey())
		}
	}
	assert.True(t, found, "gnulibc should be implicitly GPL")
}

func TestAnalyzeClashWithSecret(t *testing.T) {
	rs := core.NewRuleSet()
	gplCo, _ := buildChain(t, rs, "gpl2plus", "x86")
	secretCo := mustLabel(t, "checkout:secret2/CheckedOut")
	secretPkg := mustLabel(t, "package:secret2{x86}/Built")
	assert.NoError(t, rs.Add(core.NewRule(secretCo, nil)))
	assert.NoError(t, rs.Add(core.NewRule(secretPkg, nil, secretCo, gplCo)))

	reg := NewRegistry()
	reg.SetLicense(gplCo, Standard["gpl2plus"])
	reg.SetLicense(secretCo, NewSecret("Shh"))

	report := Analyze(rs, reg)
	assert.Contains(t, report.Clashes, secretCo)
}

func TestNotBuiltAgainstPairsSorted(t *testing.T) {
	reg := NewRegistry()
	pkgA := mustLabel(t, "package:secret2{x86}/Built")
	pkgB := mustLabel(t, "package:secret4{x86}/Built")
	coGPL := mustLabel(t, "checkout:gpl2plus/CheckedOut")
	coLibc := mustLabel(t, "checkout:gnulibc/CheckedOut")

	reg.NotBuiltAgainst(pkgB, coGPL)
	reg.NotBuiltAgainst(pkgA, coGPL)
	reg.NotBuiltAgainst(pkgA, coLibc)

	pairs := reg.NotBuiltAgainstPairs()
	assert.Len(t, pairs, 3)
	assert.Equal(t, pkgA.AsKey(), pairs[0].Package.AsKey())
	assert.Equal(t, coLibc.AsKey(), pairs[0].Checkout.AsKey())
	assert.Equal(t, pkgA.AsKey(), pairs[1].Package.AsKey())
	assert.Equal(t, coGPL.AsKey(), pairs[1].Checkout.AsKey())
	assert.Equal(t, pkgB.AsKey(), pairs[2].Package.AsKey())
}

func TestAnalyzeNotBuiltAgainstExcludesCheckout(t *testing.T) {
	rs := core.NewRuleSet()
	gplCo, _ := buildChain(t, rs, "gpl2plus", "x86")
	otherCo := mustLabel(t, "checkout:other/CheckedOut")
	otherPkg := mustLabel(t, "package:other{x86}/Built")
	assert.NoError(t, rs.Add(core.NewRule(otherCo, nil)))
	assert.NoError(t, rs.Add(core.NewRule(otherPkg, nil, otherCo, gplCo)))

	reg := NewRegistry()
	reg.SetLicense(gplCo, Standard["gpl2plus"])
	reg.NotBuiltAgainst(otherPkg, gplCo)

	report := Analyze(rs, reg)
	for _, imp := range report.Implicit {
		assert.NotEqual(t, otherCo.AsKey(), imp.Checkout.AsKey())
	}
}
