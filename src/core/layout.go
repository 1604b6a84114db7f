package core

import "path/filepath"

// The on-disk layout functions below implement the fixed tree structure
// under a build root $R. Checkout directories are assigned by
// the build description itself (Builder.RegisterCheckoutDir records that
// mapping); everything else follows a fixed naming convention from the
// label alone.

// ObjDir returns $R/obj/<pkg>/<role>/ for a package target.
func ObjDir(root string, target Label) string {
	return filepath.Join(root, "obj", target.Name, rolePath(target.Role))
}

// InstallDir returns $R/install/<role>/.
func InstallDir(root, role string) string {
	return filepath.Join(root, "install", rolePath(role))
}

// DeployDir returns $R/deploy/<name>/ for a deployment target.
func DeployDir(root string, target Label) string {
	return filepath.Join(root, "deploy", target.Name)
}

// StampFile returns $R/versions/<buildName>.stamp.
func StampFile(root, buildName string) string {
	return filepath.Join(root, "versions", buildName+".stamp")
}

// InstructionsFile returns $R/.muddle/instructions/<package>/<role>.xml.
func InstructionsFile(root string, pkg Label) string {
	return filepath.Join(root, ".muddle", "instructions", pkg.Name, rolePath(pkg.Role)+".xml")
}

// CheckoutDir returns a checkout's working tree directory. Build
// descriptions register the real mapping via a Builder; this default
// assumes the common case of $R/src/<name>, used when no mapping has been
// registered (e.g. in tests that only exercise the label/rule machinery).
func CheckoutDir(root string, target Label) string {
	return filepath.Join(root, "src", target.Name)
}
