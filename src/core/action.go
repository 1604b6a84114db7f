package core

import "context"

// An Action is the work a Rule runs once every dep is satisfied. Actions
// are a closed set of concrete kinds rather than an open plugin interface:
// each kind corresponds to one of the things a build description can ask
// for, and Run is dispatched by ordinary Go interface satisfaction instead
// of a string-keyed registry.
type Action interface {
	// Run performs the action for target, which has just had every one
	// of its deps reached.
	Run(ctx context.Context, b *Builder, target Label) error

	// String describes the action for diagnostics and dry-run output.
	String() string
}

// CheckoutVCSAction clones or updates a checkout from version control.
// Grounded on original_source/muddled/checkouts/simple.py and the vcs/
// package: a checkout rule's action is always "get this from source
// control", parameterised by repository and revision.
type CheckoutVCSAction struct {
	Repository string
	Revision   string
	VCS        string

	// Directory overrides the checkout's working tree location with a
	// path relative to src/, for two-level checkouts whose name doesn't
	// match their position in the tree. Empty means the default src/<name>.
	Directory string
}

func (a *CheckoutVCSAction) String() string {
	return "checkout " + a.Repository + " (" + a.VCS + ")"
}

func (a *CheckoutVCSAction) Run(ctx context.Context, b *Builder, target Label) error {
	return b.checkoutVCS(ctx, target, a)
}

// MakePackageAction runs an external build command (make, cmake, a shell
// script, ...) inside a checkout to produce a package's install directory.
// Grounded on original_source/muddled/deploy/builder.py and the various
// muddled.build_tools rule classes, which are all "run a command with
// MUDDLE_* env vars set" at heart.
type MakePackageAction struct {
	Command    string
	WorkingDir string
	Env        map[string]string
}

func (a *MakePackageAction) String() string {
	return "build package: " + a.Command
}

func (a *MakePackageAction) Run(ctx context.Context, b *Builder, target Label) error {
	return b.makePackage(ctx, target, a)
}

// CollectDeployAction assembles a deployment by copying built artefacts
// from one or more packages into a deployment directory.
// Grounded on original_source/muddled/deployments/collect.py.
type CollectDeployAction struct {
	Instructions []Label
}

func (a *CollectDeployAction) String() string {
	return "collect deployment"
}

func (a *CollectDeployAction) Run(ctx context.Context, b *Builder, target Label) error {
	return b.collectDeploy(ctx, target, a)
}

// CpioDeployAction packages a deployment directory into a cpio archive.
// Grounded on original_source/muddled/deployments/cpio.py.
type CpioDeployAction struct {
	OutputFile string
}

func (a *CpioDeployAction) String() string {
	return "cpio deployment to " + a.OutputFile
}

func (a *CpioDeployAction) Run(ctx context.Context, b *Builder, target Label) error {
	return b.cpioDeploy(ctx, target, a)
}

// DistributeCheckoutAction copies a checkout's source into a distribution
// directory, honouring checkout/distribute exception lists.
// Grounded on original_source/muddled/distribute.py's DistributeCheckout.
type DistributeCheckoutAction struct {
	Distribution string
	TargetDir    string
}

func (a *DistributeCheckoutAction) String() string {
	return "distribute checkout to " + a.TargetDir
}

func (a *DistributeCheckoutAction) Run(ctx context.Context, b *Builder, target Label) error {
	return b.distributeCheckout(ctx, target, a)
}

// DistributePackageAction copies a package's built artefacts (binary or
// source mode) into a distribution directory.
// Grounded on original_source/muddled/distribute.py's DistributePackage.
type DistributePackageAction struct {
	Distribution string
	TargetDir    string
	Source       bool
}

func (a *DistributePackageAction) String() string {
	return "distribute package to " + a.TargetDir
}

func (a *DistributePackageAction) Run(ctx context.Context, b *Builder, target Label) error {
	return b.distributePackage(ctx, target, a)
}
