package command

import (
	"context"
	"fmt"

	"github.com/Flameeyes/muddle/src/core"
)

// Builtins returns a Registry populated with muddle's standard commands.
// cmd/muddle registers these once at startup and looks commands up by
// name from argv.
func Builtins() *Registry {
	r := NewRegistry()

	r.Register(&Command{
		Name: "checkout", Category: CheckoutC, DefaultTag: core.CheckedOut,
		Run: buildEach,
	})
	r.Register(&Command{
		Name: "pull", Category: CheckoutC, DefaultTag: core.Pulled, StopAware: true,
		Run: buildEach,
	})
	r.Register(&Command{
		Name: "push", Category: CheckoutC, DefaultTag: core.ChangesPushed, StopAware: true,
		Run: buildEach,
	})
	r.Register(&Command{
		Name: "merge", Category: CheckoutC, DefaultTag: core.Merged, StopAware: true,
		Run: buildEach,
	})
	r.Register(&Command{
		Name: "status", Category: CheckoutC, DefaultTag: core.CheckedOut, StopAware: true,
		Run: statusEach,
	})

	r.Register(&Command{
		Name: "build", Category: PackageC, DefaultTag: core.Built,
		Run: buildEach,
	})
	r.Register(&Command{
		Name: "install", Category: PackageC, DefaultTag: core.Installed,
		Run: buildEach,
	})
	r.Register(&Command{
		Name: "clean", Category: PackageC, DefaultTag: core.Clean,
		Run: killEach,
	})
	r.Register(&Command{
		Name: "distclean", Category: PackageC, DefaultTag: core.DistClean,
		Run: killEach,
	})

	r.Register(&Command{
		Name: "deploy", Category: Deployment, DefaultTag: core.Deployed,
		Run: buildEach,
	})

	r.Register(&Command{
		Name: "query", Category: Query, DefaultTag: "",
		Run: queryEach,
	})

	return r
}

func buildEach(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error {
	for _, l := range labels {
		if err := b.BuildLabel(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func killEach(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error {
	for _, l := range labels {
		if err := b.KillLabel(l); err != nil {
			return err
		}
	}
	return nil
}

func statusEach(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error {
	for _, l := range labels {
		status, checkedOut, err := b.VCSStatus(l)
		if err != nil {
			return err
		}
		if !checkedOut {
			fmt.Printf("%s: not checked out\n", l)
			continue
		}
		if status == "" {
			fmt.Printf("%s: clean\n", l)
			continue
		}
		fmt.Printf("%s: %s\n", l, status)
	}
	return nil
}

func queryEach(ctx context.Context, b *core.Builder, labels core.Labels, justPrint bool) error {
	for _, l := range labels {
		needed, err := b.Rules.NeededToBuild(l)
		if err != nil {
			return err
		}
		for _, rule := range needed {
			fmt.Println(rule.Target.String())
		}
	}
	return nil
}
