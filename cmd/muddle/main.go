// Command muddle is the CLI entry point: thin glue wiring flag parsing
// (src/cli) to the command registry (src/command), the label-graph engine
// (src/core) and its build description (src/builddesc), in the same shape
// Please's own src/please.go wires flags to src/plz.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Flameeyes/muddle/src/builddesc"
	"github.com/Flameeyes/muddle/src/cli"
	"github.com/Flameeyes/muddle/src/cli/logging"
	"github.com/Flameeyes/muddle/src/command"
	"github.com/Flameeyes/muddle/src/core"
)

// querySubcommands names the `muddle query <sub>` diagnostics that don't
// fit the generic label-resolve-then-Run shape every other command uses:
// they report on the build description itself (rule selection, license
// exceptions) rather than driving labels through the Builder.
var querySubcommands = map[string]bool{
	"rule":              true,
	"not-built-against": true,
}

var log = logging.Log

type positionalArgs struct {
	Command   string   `positional-arg-name:"command" required:"yes" description:"Command to run (checkout, build, install, deploy, query, ...)"`
	Fragments []string `positional-arg-name:"fragments" description:"Labels or label fragments to act on; defaults to the current directory's label"`
}

var opts struct {
	Usage     string         `usage:"Muddle drives multi-repository checkouts, packages and deployments through their build lifecycle."`
	Verbosity cli.Verbosity  `short:"v" long:"verbosity" default:"warning" description:"Log verbosity: critical, error, warning, notice, info or debug"`
	Root      string         `short:"r" long:"root" description:"Build tree root (defaults to the current directory)"`
	JustPrint bool           `short:"n" long:"just_print" description:"Print the labels that would be acted on without running anything"`
	Stop      bool           `long:"stop" description:"Stop at the first failure instead of collecting and re-reporting"`
	Role      string         `long:"role" description:"Role to resolve ambiguous package fragments against"`
	Args      positionalArgs `positional-args:"yes"`
}

func main() {
	cli.ParseFlagsOrDie("muddle", "1.0.0", &opts)
	cli.InitLogging(opts.Verbosity)

	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("could not determine working directory: %s", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		log.Fatalf("could not resolve root: %s", err)
	}

	registry := command.Builtins()
	cmd, ok := registry.Lookup(opts.Args.Command)
	if !ok {
		log.Fatalf("unknown command %q; known commands: %v", opts.Args.Command, registry.Names())
	}

	m, err := loadManifest(root)
	if err != nil {
		log.Fatalf("%s", err)
	}
	rs, err := m.BuildRuleSet()
	if err != nil {
		log.Fatalf("%s", err)
	}

	b := core.NewBuilder(root, rs)

	if cmd.Name == "query" && len(opts.Args.Fragments) > 0 && querySubcommands[opts.Args.Fragments[0]] {
		if err := runQuerySubcommand(b, m, opts.Args.Fragments[0], opts.Args.Fragments[1:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("could not determine working directory: %s", err)
	}

	kind := string(cmd.Category)
	switch cmd.Category {
	case command.AnyLabel, command.Query, command.StampC, command.Init, command.Misc:
		kind = "*"
	}
	defaultRole := opts.Role
	if defaultRole == "" {
		if config, err := core.ReadConfig(root); err == nil {
			defaultRole = config.Build.DefaultRole
		}
	}
	labels, err := core.Resolve(b, opts.Args.Fragments, cwd, core.FragmentContext{Kind: kind, RequiredTag: cmd.DefaultTag, DefaultRole: defaultRole})
	if err != nil {
		log.Fatalf("%s", err)
	}

	if err := registry.Invoke(context.Background(), cmd, b, labels, opts.JustPrint, opts.Stop); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadManifest reads the build description manifest named by
// $R/.muddle/Description.
func loadManifest(root string) (*builddesc.Manifest, error) {
	rootConfig, err := core.ReadRootConfig(root)
	if err != nil {
		return nil, fmt.Errorf("reading build tree identity: %w", err)
	}
	m, err := builddesc.Load(filepath.Join(root, "src", rootConfig.Description))
	if err != nil {
		return nil, fmt.Errorf("loading build description: %w", err)
	}
	return m, nil
}

// runQuerySubcommand handles the `muddle query <sub>` diagnostics that
// report on the build description itself rather than driving labels
// through the Builder.
func runQuerySubcommand(b *core.Builder, m *builddesc.Manifest, sub string, fragments []string) error {
	switch sub {
	case "rule":
		return queryRule(b, fragments)
	case "not-built-against":
		return queryNotBuiltAgainst(m)
	default:
		return fmt.Errorf("unknown query subcommand %q", sub)
	}
}

// queryRule prints, for each resolved label, the rule PreferredRule would
// pick among every rule matching it: a human-facing "what would actually
// run here" diagnostic, never consulted by the Builder itself.
func queryRule(b *core.Builder, fragments []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not determine working directory: %w", err)
	}
	labels, err := core.Resolve(b, fragments, cwd, core.FragmentContext{Kind: "*", RequiredTag: "*"})
	if err != nil {
		return err
	}
	for _, l := range labels {
		matching := b.Rules.RulesForTarget(l, false, true)
		if len(matching) == 0 {
			fmt.Printf("%s: no matching rule\n", l)
			continue
		}
		best := b.Rules.PreferredRule(matching)
		fmt.Printf("%s: %s (%d direct deps)\n", l, best.Target, len(best.DepList()))
	}
	return nil
}

// queryNotBuiltAgainst prints every NotBuiltAgainst exception the build
// description declares.
func queryNotBuiltAgainst(m *builddesc.Manifest) error {
	reg, err := m.BuildLicenseRegistry()
	if err != nil {
		return err
	}
	for _, pair := range reg.NotBuiltAgainstPairs() {
		fmt.Printf("%s not built against %s\n", pair.Package, pair.Checkout)
	}
	return nil
}
