package core

import (
	"regexp"
	"strings"
)

var fragmentRegex = regexp.MustCompile(
	`^(?:\((?P<domain>` + atomPattern + `)\))?` +
		`(?P<name>` + atomPattern + `)` +
		`(?:\{(?P<role>` + atomPattern + `)?\})?$`,
)

// FragmentContext supplies the parts a fragment doesn't specify itself:
// the kind implied by the command being run (checkout, package or
// deployment), and the tag that command requires regardless of what the
// user typed.
type FragmentContext struct {
	Kind        string
	RequiredTag string
	// DefaultRole resolves a bare "name" fragment's role when the build
	// tree's configuration names one (Configuration.Build.DefaultRole);
	// empty means wildcard across every role, matching every rule for name.
	DefaultRole string
}

// AllFragment is the literal wildcard fragment meaning "every label of the
// command's kind".
const AllFragment = "_all"

// Resolve turns command-line fragments into the labels a command should
// act on. With no fragments, it falls back to inferring a label from cwd.
func Resolve(b *Builder, fragments []string, cwd string, ctx FragmentContext) (Labels, error) {
	if len(fragments) == 0 {
		return ResolveDefault(b, cwd, ctx)
	}
	seen := map[LabelKey]bool{}
	var out Labels
	for _, f := range fragments {
		labels, err := ResolveFragment(b.Rules, f, ctx)
		if err != nil {
			return nil, err
		}
		for _, l := range labels {
			if seen[l.AsKey()] {
				continue
			}
			seen[l.AsKey()] = true
			out = append(out, l)
		}
	}
	return out.Sort(), nil
}

// ResolveFragment resolves a single fragment against rules, forcing the
// command's required tag onto every result.
func ResolveFragment(rules *RuleSet, fragment string, ctx FragmentContext) (Labels, error) {
	if fragment == AllFragment {
		query := Label{Kind: ctx.Kind, Domain: "*", Name: "*", Role: "*", Tag: "*"}
		out := rules.TargetsMatching(query, true)
		if len(out) == 0 {
			return nil, &NoSuchLabelError{Fragment: fragment}
		}
		return forceTag(out, ctx.RequiredTag).Sort(), nil
	}

	pattern, err := parseFragmentPattern(fragment, ctx.Kind, ctx.DefaultRole)
	if err != nil {
		return nil, err
	}
	// pattern's Tag is set to "*" here (whatever tag the fragment named), so
	// this only matches labels some rule actually exists for, regardless of
	// which tag; forcing the tag below just picks which milestone of that
	// rule's lifecycle the command wants.
	pattern.Tag = "*"
	candidates := rules.TargetsMatching(pattern, true)
	seen := map[LabelKey]bool{}
	var out Labels
	for _, c := range candidates {
		forced := c.WithTag(ctx.RequiredTag)
		if seen[forced.AsKey()] {
			continue
		}
		seen[forced.AsKey()] = true
		out = append(out, forced)
	}
	if len(out) == 0 {
		return nil, &NoSuchLabelError{Fragment: fragment}
	}
	return out.Sort(), nil
}

func forceTag(labels Labels, tag string) Labels {
	seen := map[LabelKey]bool{}
	out := make(Labels, 0, len(labels))
	for _, l := range labels {
		forced := l.WithTag(tag)
		if seen[forced.AsKey()] {
			continue
		}
		seen[forced.AsKey()] = true
		out = append(out, forced)
	}
	return out
}

// parseFragmentPattern parses a fragment into a (possibly wildcarded)
// query Label: the full kind:[(domain)]name[{role}]/tag grammar if it
// matches, or one of the short forms (name, name{role}, (domain)name)
// with absent parts wildcarded and kind defaulted from defaultKind.
func parseFragmentPattern(fragment, defaultKind, defaultRole string) (Label, error) {
	if l, err := ParseLabel(fragment); err == nil {
		return l, nil
	}
	m := fragmentRegex.FindStringSubmatch(fragment)
	if m == nil {
		return Label{}, &BadLabelError{Input: fragment, Reason: "does not match any label fragment grammar"}
	}
	groups := map[string]string{}
	for i, name := range fragmentRegex.SubexpNames() {
		if i != 0 && name != "" {
			groups[name] = m[i]
		}
	}
	domain := groups["domain"]
	if domain == "" {
		domain = "*"
	}
	role := groups["role"]
	if role == "" {
		role = defaultRole
		if role == "" {
			role = "*"
		}
	}
	kind := defaultKind
	if kind == "" {
		kind = "*"
	}
	return Label{Kind: kind, Domain: domain, Name: groups["name"], Role: role, Tag: "*"}, nil
}

// ResolveDefault infers a label from the working directory when no
// fragment was given: a checkout whose working tree contains cwd, or a
// package whose obj/install directory does. AmbiguousContext if neither
// applies.
func ResolveDefault(b *Builder, cwd string, ctx FragmentContext) (Labels, error) {
	cwd = strings.TrimRight(cwd, "/")
	for _, co := range b.Rules.TargetsMatching(Label{Kind: Checkout, Domain: "*", Name: "*", Role: "*", Tag: "*"}, true) {
		if within(cwd, b.CheckoutDir(co)) {
			return Labels{co.WithTag(ctx.RequiredTag)}, nil
		}
	}
	for _, pkg := range b.Rules.TargetsMatching(Label{Kind: Package, Domain: "*", Name: "*", Role: "*", Tag: "*"}, true) {
		if within(cwd, ObjDir(b.Root, pkg)) || within(cwd, InstallDir(b.Root, pkg.Role)) {
			return Labels{pkg.WithTag(ctx.RequiredTag)}, nil
		}
	}
	return nil, &AmbiguousContextError{}
}

func within(cwd, dir string) bool {
	return cwd == dir || strings.HasPrefix(cwd, dir+"/")
}
