package core

import (
	"regexp"
	"sort"
	"strings"
)

// Well-known kinds. Kind is extensible by string; these are just the ones
// the engine itself treats specially (lifecycle tags, directory layout).
const (
	Checkout   = "checkout"
	Package    = "package"
	Deployment = "deployment"
)

// Standard tags per kind, in lifecycle order.
const (
	CheckedOut       = "CheckedOut"
	Pulled           = "Pulled"
	Merged           = "Merged"
	ChangesCommitted = "ChangesCommitted"
	ChangesPushed    = "ChangesPushed"

	PreConfig     = "PreConfig"
	Configured    = "Configured"
	Built         = "Built"
	Installed     = "Installed"
	PostInstalled = "PostInstalled"
	Clean         = "Clean"
	DistClean     = "DistClean"

	Deployed = "Deployed"

	Distributed = "Distributed"
)

const atomPattern = `[A-Za-z0-9._+-]+|\*`

var labelRegex = regexp.MustCompile(
	`^(?P<kind>` + atomPattern + `):` +
		`(?:\((?P<domain>` + atomPattern + `)\))?` +
		`(?P<name>` + atomPattern + `)` +
		`(?:\{(?P<role>` + atomPattern + `)?\})?` +
		`/(?P<tag>` + atomPattern + `)` +
		`(?:\[(?P<flags>[TS]*)\])?$`,
)

// A Label is the immutable identity of a workable entity: a checkout,
// package or deployment at a particular lifecycle point. Labels are value
// objects; every mutating-looking method returns a new Label.
//
// Equality, ordering and hashing are defined over AsKey() and ignore
// Transient and System.
type Label struct {
	Kind   string
	Domain string
	Name   string
	Role   string
	Tag    string

	// Transient marks a label whose tag must never be persisted to the
	// TagDatabase (e.g. an in-process computed environment).
	Transient bool
	// System marks a label synthesized by the engine itself; such labels
	// are hidden from default reports.
	System bool
}

// ParseLabel parses a label string of the form
// kind:[(domain)]name[{role}]/tag[flags]. Flags is a subset of "TS".
func ParseLabel(s string) (Label, error) {
	m := labelRegex.FindStringSubmatch(s)
	if m == nil {
		return Label{}, &BadLabelError{Input: s, Reason: "does not match the label grammar"}
	}
	groups := make(map[string]string, len(m))
	for i, name := range labelRegex.SubexpNames() {
		if i != 0 && name != "" {
			groups[name] = m[i]
		}
	}
	flags := groups["flags"]
	return Label{
		Kind:      groups["kind"],
		Domain:    groups["domain"],
		Name:      groups["name"],
		Role:      groups["role"],
		Tag:       groups["tag"],
		Transient: strings.ContainsRune(flags, 'T'),
		System:    strings.ContainsRune(flags, 'S'),
	}, nil
}

// String renders the label in normalized form: no parens for an absent
// domain, no braces for an absent role, no brackets when no flags are set.
func (l Label) String() string {
	var b strings.Builder
	b.WriteString(l.Kind)
	b.WriteByte(':')
	if l.Domain != "" {
		b.WriteByte('(')
		b.WriteString(l.Domain)
		b.WriteByte(')')
	}
	b.WriteString(l.Name)
	if l.Role != "" {
		b.WriteByte('{')
		b.WriteString(l.Role)
		b.WriteByte('}')
	}
	b.WriteByte('/')
	b.WriteString(l.Tag)
	if l.Transient || l.System {
		b.WriteByte('[')
		if l.Transient {
			b.WriteByte('T')
		}
		if l.System {
			b.WriteByte('S')
		}
		b.WriteByte(']')
	}
	return b.String()
}

// LabelKey is the part of a Label that participates in equality, ordering
// and hashing: everything except the Transient/System flags.
type LabelKey struct {
	Kind, Domain, Name, Role, Tag string
}

// AsKey returns the equality/ordering/hashing projection of this label.
func (l Label) AsKey() LabelKey {
	return LabelKey{l.Kind, l.Domain, l.Name, l.Role, l.Tag}
}

// Equal reports whether two labels have the same key, ignoring flags.
func (l Label) Equal(o Label) bool {
	return l.AsKey() == o.AsKey()
}

// WithTag returns a copy of l with its tag replaced.
func (l Label) WithTag(tag string) Label {
	c := l
	c.Tag = tag
	return c
}

// Less reports whether l sorts before o, lexicographically over AsKey().
// Absent domain/role ("") sorts before any concrete value, which falls out
// of ordinary string comparison since "" is the minimum string.
func (l Label) Less(o Label) bool {
	if l.Kind != o.Kind {
		return l.Kind < o.Kind
	}
	if l.Domain != o.Domain {
		return l.Domain < o.Domain
	}
	if l.Name != o.Name {
		return l.Name < o.Name
	}
	if l.Role != o.Role {
		return l.Role < o.Role
	}
	return l.Tag < o.Tag
}

// Compare returns -1, 0 or 1 as l is less than, equal to, or greater than o.
func (l Label) Compare(o Label) int {
	if l.Equal(o) {
		return 0
	}
	if l.Less(o) {
		return -1
	}
	return 1
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalFlag implements the go-flags Unmarshaler interface, so Label can
// be used directly as a command-line flag or positional argument type.
func (l *Label) UnmarshalFlag(in string) error {
	parsed, err := ParseLabel(in)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	return l.UnmarshalFlag(string(text))
}

// matchParts pairs up the corresponding parts of two labels, in the
// canonical comparison order used by Match/MatchWithoutTag.
func (l Label) matchParts(o Label, withTag bool) [][2]string {
	parts := [][2]string{
		{l.Kind, o.Kind},
		{l.Domain, o.Domain},
		{l.Name, o.Name},
		{l.Role, o.Role},
	}
	if withTag {
		parts = append(parts, [2]string{l.Tag, o.Tag})
	}
	return parts
}

// Match compares two labels under wildcard semantics. Two parts conflict
// iff they differ and neither is "*". If any part conflicts, Match returns
// (0, false). Otherwise it returns (-wildcards, true), where wildcards is
// the number of parts that needed a wildcard to reconcile; a higher
// (less negative) score is a more specific match, for tie-breaking between
// several matching rules.
func Match(a, b Label) (int, bool) {
	score := 0
	for _, p := range a.matchParts(b, true) {
		x, y := p[0], p[1]
		if x == "*" || y == "*" {
			score--
			continue
		}
		if x != y {
			return 0, false
		}
	}
	return score, true
}

// MatchWithoutTag is Match ignoring the Tag part entirely.
func MatchWithoutTag(a, b Label) bool {
	for _, p := range a.matchParts(b, false) {
		x, y := p[0], p[1]
		if x == "*" || y == "*" {
			continue
		}
		if x != y {
			return false
		}
	}
	return true
}

// Labels is a sortable slice of Label, ordered per Label.Less.
type Labels []Label

func (ls Labels) Len() int           { return len(ls) }
func (ls Labels) Swap(i, j int)      { ls[i], ls[j] = ls[j], ls[i] }
func (ls Labels) Less(i, j int) bool { return ls[i].Less(ls[j]) }

// Sort sorts ls in place and returns it, for chaining.
func (ls Labels) Sort() Labels {
	sort.Sort(ls)
	return ls
}

// String joins the labels' string forms with ", ", in their current order.
func (ls Labels) String() string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}
