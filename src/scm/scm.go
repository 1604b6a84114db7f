// Package scm abstracts version-control operations over a checkout's working
// tree. Each checkout label is bound to a VCS tag (git, bzr, svn, ...); the
// registry resolves that tag to an Adapter.
package scm

import (
	"fmt"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("scm")

// An Adapter implements the VCS operations a checkout needs.
type Adapter interface {
	// Clone checks out url into dir for the first time, at the given revision
	// (empty meaning whatever the VCS considers "latest").
	Clone(dir, url, revision string) error
	// Checkout switches an existing working tree to revision.
	Checkout(dir, revision string) error
	// Pull fast-forwards dir to the remote's current state. It must fail
	// rather than create a merge commit if history has diverged.
	Pull(dir string) error
	// Merge merges revision into dir's current branch.
	Merge(dir, revision string) error
	// Commit records all changes in dir under the given message.
	Commit(dir, message string) error
	// Push publishes dir's current branch to its configured remote.
	Push(dir string) error
	// Status reports a short human-readable description of dir's local
	// modifications, or "" if the working tree is clean.
	Status(dir string) (string, error)
	// Reparent rewrites dir's upstream remote to url, e.g. after a
	// repository has moved.
	Reparent(dir, url string) error
	// CurrentRevision returns the revision identifier dir is currently at.
	CurrentRevision(dir string) (string, error)
	// VCSDirName returns the name of the VCS metadata directory (".git", ".bzr", ...).
	VCSDirName() string
}

// registry maps a VCS tag to its Adapter.
var registry = map[string]Adapter{}

// Register installs an Adapter under the given VCS tag. Adapters register
// themselves from an init function.
func Register(tag string, a Adapter) {
	registry[tag] = a
}

// Get returns the Adapter registered for tag, or an error if none is known.
func Get(tag string) (Adapter, error) {
	a, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("no VCS adapter registered for tag %q", tag)
	}
	return a, nil
}
