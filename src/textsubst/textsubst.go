// Package textsubst expands $(VAR) references in build description strings
// against a build's environment. Grounded on Please's
// command_replacements.go, which expands genrule-specific $(location ...)
// forms; Muddle has no rule-output-location concept, so this generalises
// the same lazy-regex substitution machinery to its $(MUDDLE_*) variable
// set plus any store-provided variable (src/envstore).
package textsubst

import (
	"fmt"

	"github.com/peterebden/go-deferred-regex"
)

var varReplacement = deferredregex.DeferredRegex{Re: `\$\(([A-Za-z_][A-Za-z0-9_]*)\)`}

// Expand replaces every $(VAR) in s with vars[VAR]. An unknown VAR is an
// error: a command referencing a variable that was never set is very
// likely a typo, not an intentional empty string.
func Expand(s string, vars map[string]string) (string, error) {
	var missing string
	out := varReplacement.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		v, ok := vars[name]
		if !ok {
			missing = name
			return match
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("textsubst: unknown variable %q", missing)
	}
	return out, nil
}
