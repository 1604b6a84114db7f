package core

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Flameeyes/muddle/src/cli/logging"
	"github.com/Flameeyes/muddle/src/cpio"
	"github.com/Flameeyes/muddle/src/distribute"
	"github.com/Flameeyes/muddle/src/envstore"
	"github.com/Flameeyes/muddle/src/instructions"
	"github.com/Flameeyes/muddle/src/process"
	"github.com/Flameeyes/muddle/src/scm"
	"github.com/Flameeyes/muddle/src/textsubst"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

var log = logging.Log

// DefaultActionTimeout bounds a single Action's subprocess, so that an
// Executor never waits on a child process forever. A build description
// cannot override it.
const DefaultActionTimeout = 2 * time.Hour

// A Builder drives labels to their tags: a single-threaded, direct-
// recursion state machine over a RuleSet, backed by a TagDatabase for
// idempotence and a process.Executor for running Actions.
type Builder struct {
	Root  string
	Rules *RuleSet
	Tags  *TagDatabase
	Exec  *process.Executor
	Env   envstore.Store

	// RunID identifies this Builder's invocation in log output, so lines
	// from concurrent `muddle` invocations against the same tree (e.g. one
	// tailing a log file while another runs) can be told apart.
	RunID string

	checkoutDirs map[LabelKey]string
	vcsTags      map[LabelKey]string
	building     map[LabelKey]bool
	stack        []Label
}

// NewBuilder returns a Builder rooted at root, driving rules.
func NewBuilder(root string, rules *RuleSet) *Builder {
	return &Builder{
		Root:         root,
		Rules:        rules,
		Tags:         NewTagDatabase(root),
		Exec:         process.New(),
		Env:          envstore.New(),
		RunID:        uuid.NewString(),
		checkoutDirs: map[LabelKey]string{},
		vcsTags:      map[LabelKey]string{},
		building:     map[LabelKey]bool{},
	}
}

// RegisterCheckoutDir records where a build description has placed a
// checkout's working tree, overriding the default src/<name> layout (used
// e.g. for two-level checkouts nested under a relative directory).
func (b *Builder) RegisterCheckoutDir(co Label, dir string) {
	b.checkoutDirs[co.AsKey()] = dir
}

// CheckoutDir returns co's working tree directory.
func (b *Builder) CheckoutDir(co Label) string {
	if dir, ok := b.checkoutDirs[co.AsKey()]; ok {
		return dir
	}
	return CheckoutDir(b.Root, co)
}

// VCSDirName reports the VCS metadata directory name for co, if its
// checkout action has run and registered one.
func (b *Builder) VCSDirName(co Label) (string, bool) {
	tag, ok := b.vcsTags[co.AsKey()]
	if !ok {
		return "", false
	}
	a, err := scm.Get(tag)
	if err != nil {
		return "", false
	}
	return a.VCSDirName(), true
}

// VCSStatus reports co's working tree status via its registered VCS
// adapter, or ("", false) if co hasn't been checked out yet.
func (b *Builder) VCSStatus(co Label) (string, bool, error) {
	tag, ok := b.vcsTags[co.AsKey()]
	if !ok {
		return "", false, nil
	}
	a, err := scm.Get(tag)
	if err != nil {
		return "", false, err
	}
	status, err := a.Status(b.CheckoutDir(co))
	return status, true, err
}

// BuildLabel drives l to its tag: if already reached, returns immediately;
// otherwise builds every dep first, then runs l's action exactly once,
// then records l's tag.
func (b *Builder) BuildLabel(ctx context.Context, l Label) error {
	if !l.Transient && b.Tags.Has(l) {
		return nil
	}
	key := l.AsKey()
	if b.building[key] {
		cycle := append(append(Labels{}, b.stack...), l)
		return &CircularOrIncompleteError{Pending: Labels{l}, Cycle: cycle}
	}

	matching := b.Rules.RulesForTarget(l, false, true)
	if len(matching) == 0 {
		return &NoRuleForError{Label: l}
	}
	eff, err := b.Rules.EffectiveRule(l)
	if err != nil {
		return err
	}

	b.building[key] = true
	b.stack = append(b.stack, l)
	defer func() {
		delete(b.building, key)
		b.stack = b.stack[:len(b.stack)-1]
	}()

	for _, dep := range eff.DepList() {
		if err := b.BuildLabel(ctx, dep); err != nil {
			return err
		}
	}

	if eff.Action != nil {
		log.Debugf("[%s] running action for %s: %s", b.RunID, l, eff.Action)
		if err := eff.Action.Run(ctx, b, l); err != nil {
			return &ActionFailedError{Label: l, Cause: err}
		}
	}

	if l.Transient {
		return nil
	}
	return b.Tags.Set(l)
}

// KillLabel clears l's tag and the tags of every label in required_by(l),
// since retraction is transitive along dependents.
func (b *Builder) KillLabel(l Label) error {
	targets := append(Labels{l}, b.Rules.RequiredBy(l)...)
	var errs *multierror.Error
	for _, t := range targets {
		if err := b.Tags.Clear(t); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// checkoutVCS runs a CheckoutVCSAction: clone unless the checkout's tag is
// already recorded, otherwise leave the working tree alone (pull/update are
// separate commands, not part of reaching CheckedOut).
func (b *Builder) checkoutVCS(ctx context.Context, target Label, a *CheckoutVCSAction) error {
	adapter, err := scm.Get(a.VCS)
	if err != nil {
		return err
	}
	b.vcsTags[target.AsKey()] = a.VCS
	if a.Directory != "" {
		b.RegisterCheckoutDir(target, filepath.Join(b.Root, "src", a.Directory))
	}
	dir := b.CheckoutDir(target)
	if b.Tags.Has(target) {
		return nil
	}
	return adapter.Clone(dir, a.Repository, a.Revision)
}

// makePackage runs a build command inside a checkout, with the standard
// MUDDLE_* environment plus accumulated dep contributions.
func (b *Builder) makePackage(ctx context.Context, target Label, a *MakePackageAction) error {
	env := NewEnvBuilder(b.Root, target)
	eff, err := b.Rules.EffectiveRule(target)
	if err != nil {
		return err
	}
	if eff != nil {
		for _, dep := range eff.DepList() {
			env.AddDep(dep)
		}
	}
	env.AddStore(b.Env)
	for k, v := range a.Env {
		env.Env()[k] = v
	}
	dir := a.WorkingDir
	if dir == "" {
		dir = b.CheckoutDir(target)
	}
	command, err := textsubst.Expand(a.Command, env.Env())
	if err != nil {
		return err
	}
	_, err = b.Exec.ExecWithTimeout(ctx, dir, env.Env().ToSlice(), DefaultActionTimeout, true, []string{"/bin/sh", "-c", command})
	return err
}

// collectDeploy assembles a deployment by copying every dependency
// package's install tree into the deployment directory, one subdirectory
// per role. Instructions (per-(package,role) XML files written during the
// package build) are left in place under .muddle/instructions for the
// image-building stage that follows collection to consult.
func (b *Builder) collectDeploy(ctx context.Context, target Label, a *CollectDeployAction) error {
	eff, err := b.Rules.EffectiveRule(target)
	if err != nil {
		return err
	}
	if eff == nil {
		return nil
	}
	var manifests []distribute.Manifest
	for _, dep := range eff.DepList() {
		if dep.Kind != Package {
			continue
		}
		manifests = append(manifests, distribute.Manifest{
			SrcDir: InstallDir(b.Root, dep.Role),
			DstDir: filepath.Join(DeployDir(b.Root, target), rolePath(dep.Role)),
		})
	}
	return distribute.Execute(manifests)
}

// cpioDeploy applies every collected package's instructions to the
// deployment tree, then packages it into a cpio archive.
func (b *Builder) cpioDeploy(ctx context.Context, target Label, a *CpioDeployAction) error {
	eff, err := b.Rules.EffectiveRule(target)
	if err != nil {
		return err
	}
	if eff != nil {
		for _, dep := range eff.DepList() {
			if dep.Kind != Package {
				continue
			}
			in, err := instructions.Read(InstructionsFile(b.Root, dep))
			if err != nil {
				return err
			}
			if err := instructions.Apply(in, DeployDir(b.Root, target)); err != nil {
				return err
			}
		}
	}
	return cpio.WriteArchive(DeployDir(b.Root, target), a.OutputFile)
}

// distributeCheckout copies a checkout's source tree into a distribution
// directory.
func (b *Builder) distributeCheckout(ctx context.Context, target Label, a *DistributeCheckoutAction) error {
	d := NewDistributor()
	d.RequestCheckout(target, a.Distribution, false)
	manifests, err := d.Plan(b, a.Distribution)
	if err != nil {
		return err
	}
	manifests = Rebase(manifests, DistributionRoot(b.Root, a.Distribution), a.TargetDir)
	return distribute.Execute(manifests)
}

// distributePackage copies a package's build artefacts, or the checkouts
// it's built from, into a distribution directory.
func (b *Builder) distributePackage(ctx context.Context, target Label, a *DistributePackageAction) error {
	d := NewDistributor()
	d.RequestPackage(target, a.Distribution, !a.Source, a.Source, false)
	manifests, err := d.Plan(b, a.Distribution)
	if err != nil {
		return err
	}
	manifests = Rebase(manifests, DistributionRoot(b.Root, a.Distribution), a.TargetDir)
	return distribute.Execute(manifests)
}
