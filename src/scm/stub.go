package scm

import "fmt"

func init() {
	for _, tag := range []string{"bzr", "svn"} {
		Register(tag, &stub{tag: tag})
	}
}

// stub is registered for VCS tags that are recognised but not implemented;
// it fails clearly rather than silently doing nothing.
type stub struct{ tag string }

func (s *stub) unsupported() error {
	return fmt.Errorf("vcs tag %q is not supported", s.tag)
}

func (s *stub) Clone(dir, url, revision string) error       { return s.unsupported() }
func (s *stub) Checkout(dir, revision string) error          { return s.unsupported() }
func (s *stub) Pull(dir string) error                        { return s.unsupported() }
func (s *stub) Merge(dir, revision string) error              { return s.unsupported() }
func (s *stub) Commit(dir, message string) error              { return s.unsupported() }
func (s *stub) Push(dir string) error                         { return s.unsupported() }
func (s *stub) Status(dir string) (string, error)             { return "", s.unsupported() }
func (s *stub) Reparent(dir, url string) error                { return s.unsupported() }
func (s *stub) CurrentRevision(dir string) (string, error)    { return "", s.unsupported() }
func (s *stub) VCSDirName() string                            { return "." + s.tag }
