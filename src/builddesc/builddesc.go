// Package builddesc loads a build description into a *core.RuleSet. The
// original muddle embeds a Python interpreter so build descriptions are
// themselves Python scripts; this engine has no embedded scripting
// language, so descriptions here are a declarative JSON manifest instead,
// kept deliberately small and mechanical: stdlib encoding/json, no schema
// language fits this closed, build-tree-local shape any better.
package builddesc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Flameeyes/muddle/src/core"
	"github.com/Flameeyes/muddle/src/license"
)

// ActionSpec is the JSON form of one of core's concrete Action kinds,
// discriminated by Kind.
type ActionSpec struct {
	Kind string `json:"kind"`

	// checkout_vcs
	Repository string `json:"repository,omitempty"`
	Revision   string `json:"revision,omitempty"`
	VCS        string `json:"vcs,omitempty"`

	// Directory overrides the checkout's default src/<name> working tree
	// with a relative path under src/, for two-level checkouts whose name
	// doesn't match their position in the tree (e.g. "twolevel/checkout2").
	Directory string `json:"directory,omitempty"`

	// make_package
	Command    string            `json:"command,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"`

	// collect_deploy
	Instructions []string `json:"instructions,omitempty"`

	// cpio_deploy
	OutputFile string `json:"output_file,omitempty"`

	// distribute_checkout / distribute_package
	Distribution string `json:"distribution,omitempty"`
	TargetDir    string `json:"target_dir,omitempty"`
	Source       bool   `json:"source,omitempty"`
}

// RuleSpec is the JSON form of one core.Rule.
type RuleSpec struct {
	Target string      `json:"target"`
	Deps   []string    `json:"deps,omitempty"`
	Action *ActionSpec `json:"action,omitempty"`
}

// LicenseSpec is the JSON form of one checkout's license declaration.
type LicenseSpec struct {
	Checkout string `json:"checkout"`
	// Name is either a key into license.Standard (e.g. "gpl2", "lgpl-except")
	// or, when Kind is "binary"/"secret", the customer/reason string those
	// license kinds carry instead of a standard name.
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// NotBuiltAgainstSpec is the JSON form of one license.Registry.NotBuiltAgainst
// exception.
type NotBuiltAgainstSpec struct {
	Package  string `json:"package"`
	Checkout string `json:"checkout"`
}

// Manifest is the top-level JSON document: the identity of the build tree
// plus every rule it defines.
type Manifest struct {
	RootRepository     string                `json:"root_repository"`
	Description        string                `json:"description"`
	VersionsRepository string                `json:"versions_repository,omitempty"`
	Rules              []RuleSpec            `json:"rules"`
	Licenses           []LicenseSpec         `json:"licenses,omitempty"`
	NotBuiltAgainst    []NotBuiltAgainstSpec `json:"not_built_against,omitempty"`
}

// Load reads and parses a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("builddesc: parsing %s: %w", path, err)
	}
	return &m, nil
}

// BuildRuleSet translates m into a core.RuleSet.
func (m *Manifest) BuildRuleSet() (*core.RuleSet, error) {
	rs := core.NewRuleSet()
	for _, spec := range m.Rules {
		target, err := core.ParseLabel(spec.Target)
		if err != nil {
			return nil, fmt.Errorf("builddesc: rule %q: %w", spec.Target, err)
		}
		deps := make([]core.Label, 0, len(spec.Deps))
		for _, d := range spec.Deps {
			dep, err := core.ParseLabel(d)
			if err != nil {
				return nil, fmt.Errorf("builddesc: dep %q of %q: %w", d, spec.Target, err)
			}
			deps = append(deps, dep)
		}
		action, err := buildAction(spec.Action)
		if err != nil {
			return nil, fmt.Errorf("builddesc: action for %q: %w", spec.Target, err)
		}
		if err := rs.Add(core.NewRule(target, action, deps...)); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// BuildLicenseRegistry translates m's license declarations and
// NotBuiltAgainst exceptions into a *license.Registry.
func (m *Manifest) BuildLicenseRegistry() (*license.Registry, error) {
	reg := license.NewRegistry()
	for _, spec := range m.Licenses {
		co, err := core.ParseLabel(spec.Checkout)
		if err != nil {
			return nil, fmt.Errorf("builddesc: license checkout %q: %w", spec.Checkout, err)
		}
		var lic license.License
		switch spec.Kind {
		case "binary":
			lic = license.NewBinary(spec.Name)
		case "secret":
			lic = license.NewSecret(spec.Name)
		case "", "standard":
			std, ok := license.Standard[spec.Name]
			if !ok {
				return nil, fmt.Errorf("builddesc: unknown standard license %q for %s", spec.Name, spec.Checkout)
			}
			lic = std
		default:
			return nil, fmt.Errorf("builddesc: unknown license kind %q for %s", spec.Kind, spec.Checkout)
		}
		reg.SetLicense(co, lic)
	}
	for _, spec := range m.NotBuiltAgainst {
		pkg, err := core.ParseLabel(spec.Package)
		if err != nil {
			return nil, fmt.Errorf("builddesc: not_built_against package %q: %w", spec.Package, err)
		}
		co, err := core.ParseLabel(spec.Checkout)
		if err != nil {
			return nil, fmt.Errorf("builddesc: not_built_against checkout %q: %w", spec.Checkout, err)
		}
		reg.NotBuiltAgainst(pkg, co)
	}
	return reg, nil
}

func buildAction(spec *ActionSpec) (core.Action, error) {
	if spec == nil {
		return nil, nil
	}
	switch spec.Kind {
	case "checkout_vcs":
		return &core.CheckoutVCSAction{Repository: spec.Repository, Revision: spec.Revision, VCS: spec.VCS, Directory: spec.Directory}, nil
	case "make_package":
		return &core.MakePackageAction{Command: spec.Command, WorkingDir: spec.WorkingDir, Env: spec.Env}, nil
	case "collect_deploy":
		instructions := make([]core.Label, 0, len(spec.Instructions))
		for _, s := range spec.Instructions {
			l, err := core.ParseLabel(s)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, l)
		}
		return &core.CollectDeployAction{Instructions: instructions}, nil
	case "cpio_deploy":
		return &core.CpioDeployAction{OutputFile: spec.OutputFile}, nil
	case "distribute_checkout":
		return &core.DistributeCheckoutAction{Distribution: spec.Distribution, TargetDir: spec.TargetDir}, nil
	case "distribute_package":
		return &core.DistributePackageAction{Distribution: spec.Distribution, TargetDir: spec.TargetDir, Source: spec.Source}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", spec.Kind)
	}
}
