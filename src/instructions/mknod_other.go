//go:build !unix

package instructions

import "fmt"

func mknod(path string, n Mknod) error {
	return fmt.Errorf("instructions: mknod is not supported on this platform")
}
