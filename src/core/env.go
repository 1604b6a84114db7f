package core

import (
	"sort"
	"strings"

	"github.com/Flameeyes/muddle/src/envstore"
	"github.com/alessio/shellescape"
)

// A BuildEnv is the set of environment variables an Action runs with. It
// knows how to render itself for both exec.Cmd (ToSlice) and human debug
// output (String), the way Please's core.BuildEnv does for plz rules.
type BuildEnv map[string]string

// Add merges that into env, overwriting on key collision.
func (env BuildEnv) Add(that BuildEnv) {
	for k, v := range that {
		env[k] = v
	}
}

// ToSlice converts env into a sorted "KEY=value" slice, suitable for
// exec.Cmd.Env.
func (env BuildEnv) ToSlice() []string {
	ret := make([]string, 0, len(env))
	for k, v := range env {
		ret = append(ret, k+"="+v)
	}
	sort.Strings(ret)
	return ret
}

// String renders env as shell-quoted "export KEY=value" lines, for a
// human-readable debug dump.
func (env BuildEnv) String() string {
	lines := make([]string, 0, len(env))
	for _, kv := range env.ToSlice() {
		k, v, _ := strings.Cut(kv, "=")
		lines = append(lines, "export "+k+"="+shellescape.Quote(v))
	}
	return strings.Join(lines, "\n")
}

// prependPath adds dir to the front of the colon-separated value of key in
// env, skipping it if it's already present.
func prependPath(env BuildEnv, key, dir string) {
	if dir == "" {
		return
	}
	existing := env[key]
	if existing == "" {
		env[key] = dir
		return
	}
	for _, p := range strings.Split(existing, ":") {
		if p == dir {
			return
		}
	}
	env[key] = dir + ":" + existing
}

// An EnvBuilder accumulates the environment an Action for a package runs
// with: the fixed MUDDLE_* variables for that label, plus
// PATH/LD_LIBRARY_PATH/PKG_CONFIG_PATH prefixes contributed by every dep
// already built, in dependency order so the most specific dep wins.
type EnvBuilder struct {
	root string
	env  BuildEnv
}

// NewEnvBuilder starts building the environment for target, rooted at root
// (the build tree root, $R).
func NewEnvBuilder(root string, target Label) *EnvBuilder {
	b := &EnvBuilder{root: root, env: BuildEnv{}}
	b.env["MUDDLE_LABEL"] = target.String()
	if target.Kind == Checkout {
		b.env["MUDDLE_SRC"] = CheckoutDir(root, target)
	}
	if target.Kind == Package {
		b.env["MUDDLE_OBJ"] = ObjDir(root, target)
		b.env["MUDDLE_INSTALL"] = InstallDir(root, target.Role)
		b.env["MUDDLE_TARGET_LOCATION"] = InstallDir(root, target.Role)
	}
	return b
}

// AddDep folds in the env contributions of dep, which must already have
// been reached: its install tree is prepended to PATH/LD_LIBRARY_PATH, and
// any pkg-config files it installed are prepended to PKG_CONFIG_PATH.
func (b *EnvBuilder) AddDep(dep Label) *EnvBuilder {
	if dep.Kind != Package {
		return b
	}
	install := InstallDir(b.root, dep.Role)
	prependPath(b.env, "PATH", install+"/bin")
	prependPath(b.env, "LD_LIBRARY_PATH", install+"/lib")
	prependPath(b.env, "PKG_CONFIG_PATH", install+"/lib/pkgconfig")
	return b
}

// AddStore folds in every variable from s that isn't already set to one of
// the fixed MUDDLE_* values: a build description can publish extra
// variables (e.g. a toolchain prefix) through the store without being able
// to clobber the ones the builder itself is responsible for.
func (b *EnvBuilder) AddStore(s envstore.Store) *EnvBuilder {
	for k, v := range s.All() {
		if _, ok := b.env[k]; !ok {
			b.env[k] = v
		}
	}
	return b
}

// Env returns the accumulated environment. It holds only the variables set
// here; process.Executor.ExecWithTimeout appends it to os.Environ() when it
// runs a command.
func (b *EnvBuilder) Env() BuildEnv {
	return b.env
}
