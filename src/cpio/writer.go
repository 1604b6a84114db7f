// Package cpio writes archives in the "newc" (SVR4 portable ASCII, no
// checksum) cpio format used by Linux initramfs images, the format
// CpioDeployAction packages a deployment directory into. The standard
// library has no cpio support, and none of the example repos in this
// pack's dependency set provide one either, so this is a direct,
// minimal implementation of the format.
package cpio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"
)

const (
	magic     = "070701"
	trailer   = "TRAILER!!!"
	headerLen = 110
)

// WriteArchive walks root and writes every regular file, directory and
// symlink under it into a newc-format cpio archive at outputFile, with
// paths relative to root.
func WriteArchive(root, outputFile string) error {
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer f.Close()

	var names []string
	if err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root {
				return nil
			}
			names = append(names, path)
			return nil
		},
	}); err != nil {
		return err
	}
	sort.Strings(names)

	w := &writer{w: f}
	for _, path := range names {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if err := w.writeEntry(path, rel); err != nil {
			return err
		}
	}
	return w.writeTrailer()
}

type writer struct {
	w      io.Writer
	ino    uint32
	offset int64
}

func (w *writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.offset += int64(n)
	return err
}

func (w *writer) pad() error {
	if rem := w.offset % 4; rem != 0 {
		return w.write(make([]byte, 4-rem))
	}
	return nil
}

func (w *writer) writeHeader(mode, filesize uint32, namesize int) error {
	w.ino++
	header := fmt.Sprintf("%s%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X",
		magic,
		w.ino,     // c_ino
		mode,      // c_mode
		0,         // c_uid
		0,         // c_gid
		1,         // c_nlink
		0,         // c_mtime
		filesize,  // c_filesize
		0,         // c_devmajor
		0,         // c_devminor
		0,         // c_rdevmajor
		0,         // c_rdevminor
		namesize,  // c_namesize
		0,         // c_check
	)
	if len(header) != headerLen {
		return fmt.Errorf("cpio: bad header length %d", len(header))
	}
	return w.write([]byte(header))
}

func (w *writer) writeName(name string) error {
	if err := w.write(append([]byte(name), 0)); err != nil {
		return err
	}
	return w.pad()
}

func (w *writer) writeEntry(path, name string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return err
		}
		if err := w.writeHeader(0o120777, uint32(len(target)), len(name)+1); err != nil {
			return err
		}
		if err := w.writeName(name); err != nil {
			return err
		}
		if err := w.write([]byte(target)); err != nil {
			return err
		}
		return w.pad()
	case info.IsDir():
		if err := w.writeHeader(0o40755, 0, len(name)+1); err != nil {
			return err
		}
		return w.writeName(name)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		mode := uint32(0o100644)
		if info.Mode()&0o111 != 0 {
			mode = 0o100755
		}
		if err := w.writeHeader(mode, uint32(len(data)), len(name)+1); err != nil {
			return err
		}
		if err := w.writeName(name); err != nil {
			return err
		}
		if err := w.write(data); err != nil {
			return err
		}
		return w.pad()
	}
}

func (w *writer) writeTrailer() error {
	if err := w.writeHeader(0, 0, len(trailer)+1); err != nil {
		return err
	}
	return w.writeName(trailer)
}
