package core

import "fmt"

// BadLabelError reports a label string that does not conform to the
// kind:[(domain)]name[{role}]/tag[flags] grammar.
type BadLabelError struct {
	Input  string
	Reason string
}

func (e *BadLabelError) Error() string {
	return fmt.Sprintf("bad label %q: %s", e.Input, e.Reason)
}

// NoSuchLabelError reports a command-line fragment that resolved to no
// label actually present in the rule set.
type NoSuchLabelError struct {
	Fragment string
}

func (e *NoSuchLabelError) Error() string {
	return fmt.Sprintf("no such label: %s", e.Fragment)
}

// AmbiguousContextError reports that default (cwd-based) label resolution
// found nothing usable.
type AmbiguousContextError struct{}

func (e *AmbiguousContextError) Error() string {
	return "ambiguous context: could not infer a label from the working directory"
}

// NoRuleForError reports that the solver needed a rule that doesn't exist.
type NoRuleForError struct {
	Label Label
}

func (e *NoRuleForError) Error() string {
	return fmt.Sprintf("no rule for %s", e.Label)
}

// CircularOrIncompleteError reports that a dependency solver pass made no
// progress: either a cycle exists, or some target has no matching rule.
type CircularOrIncompleteError struct {
	// Pending is the set of targets that remained unsatisfied.
	Pending []Label
	// Partial is the sequence of rules that were successfully ordered
	// before the solver stalled.
	Partial []Label
	// Cycle, if non-empty, is a concrete cycle found among Pending.
	Cycle []Label
}

func (e *CircularOrIncompleteError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("circular dependency: %s", formatCycle(e.Cycle))
	}
	return fmt.Sprintf("incomplete dependency graph: %d target(s) could not be satisfied", len(e.Pending))
}

func formatCycle(cycle []Label) string {
	s := ""
	for i, l := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += l.String()
	}
	return s
}

// ActionFailedError reports that a rule's Action returned an error.
type ActionFailedError struct {
	Label Label
	Cause error
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action failed for %s: %s", e.Label, e.Cause)
}

func (e *ActionFailedError) Unwrap() error { return e.Cause }

// UnsupportedError reports that an operation does not apply to a label,
// e.g. pull on a checkout whose VCS has no concept of a remote.
type UnsupportedError struct {
	Label  Label
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported for %s: %s", e.Label, e.Reason)
}

// ConfigurationError reports a build-description-level invariant violation,
// such as two wildcard rules both supplying an action for the same target.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// BugError reports an internal invariant violation. Callers should treat
// this as unconditionally fatal.
type BugError struct {
	Message string
}

func (e *BugError) Error() string {
	return "internal error: " + e.Message
}
