// Package command implements a CLI command registry in place of Please's
// per-category flag-struct dispatch (src/please.go's giant opts struct
// switched on by hand): a Registry of Command values built once at
// startup, each knowing its own category, default tag and whether
// failures should be collected and re-reported rather than raised
// immediately.
package command

import (
	"context"
	"fmt"

	"github.com/Flameeyes/muddle/src/cli/logging"
	"github.com/Flameeyes/muddle/src/core"
	"github.com/hashicorp/go-multierror"
)

var log = logging.Log

// Category groups commands by the kind of label they act on.
type Category string

const (
	Init       Category = "init"
	CheckoutC  Category = "checkout"
	PackageC   Category = "package"
	Deployment Category = "deployment"
	AnyLabel   Category = "anylabel"
	Query      Category = "query"
	StampC     Category = "stamp"
	Misc       Category = "misc"
)

// Run is a command's body: given the builder and the labels the CLI
// resolved fragments to (core.Resolve), perform the command's effect.
// just-print short-circuits to reporting planned labels without invoking
// any Action.
type Run func(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error

// A Command is one CLI verb.
type Command struct {
	Name       string
	Category   Category
	DefaultTag string
	StopAware  bool // whether --stop changes this command's error-collection behavior
	Run        Run
}

// Registry is a name-addressed set of Commands built at startup, replacing
// a module-level `var subCommands = ...` switch style with an explicit,
// inspectable object.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: map[string]*Command{}}
}

// Register adds cmd, panicking on a duplicate name: that's a programming
// error caught at startup, not a runtime condition to report gracefully.
func (r *Registry) Register(cmd *Command) {
	if _, exists := r.commands[cmd.Name]; exists {
		panic(fmt.Sprintf("command: duplicate registration of %q", cmd.Name))
	}
	r.commands[cmd.Name] = cmd
}

// Lookup returns the Command for name, if any.
func (r *Registry) Lookup(name string) (*Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Names returns every registered command name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	return names
}

// Invoke runs cmd over labels: with stop set, the first ActionFailedError
// aborts immediately; without it, every label is attempted and failures
// are collected into a single combined error reported at the end.
func (r *Registry) Invoke(ctx context.Context, cmd *Command, b *core.Builder, labels core.Labels, justPrint, stop bool) error {
	if justPrint {
		for _, l := range labels {
			fmt.Println(l.String())
		}
		return nil
	}
	if !cmd.StopAware || stop {
		return cmd.Run(ctx, b, labels, justPrint)
	}
	var errs *multierror.Error
	for _, l := range labels {
		if err := cmd.Run(ctx, b, core.Labels{l}, justPrint); err != nil {
			if unsupported, ok := err.(*core.UnsupportedError); ok {
				log.Warning("%s", unsupported.Error())
				continue
			}
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
