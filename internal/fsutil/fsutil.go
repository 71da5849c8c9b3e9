// Package fsutil provides the directory operations shared by the pipeline
// stages. Paths are relative to the root of the billy.Filesystem.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// DirError reports a failed create, remove or copy.
type DirError struct {
	Op   string // "create", "remove" or "copy"
	Path string
	Err  error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DirError) Unwrap() error { return e.Err }

// OS returns a filesystem rooted at dir.
func OS(dir string) billy.Filesystem {
	return osfs.New(dir)
}

// MakeDir creates path and any missing parents. An existing directory is
// left untouched.
func MakeDir(fs billy.Filesystem, path string) error {
	if err := fs.MkdirAll(path, 0o755); err != nil {
		return &DirError{Op: "create", Path: path, Err: err}
	}
	return nil
}

// RemoveDir removes path and everything below it. A missing path is not an
// error.
func RemoveDir(fs billy.Filesystem, path string) error {
	if err := util.RemoveAll(fs, path); err != nil {
		return &DirError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// Exists reports whether path exists.
func Exists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// IsEmptyDir reports whether path is missing, not a directory, or contains
// no regular files at any depth.
func IsEmptyDir(fs billy.Filesystem, path string) bool {
	info, err := fs.Stat(path)
	if err != nil || !info.IsDir() {
		return true
	}
	empty := true
	_ = util.Walk(fs, path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			empty = false
			return filepath.SkipAll
		}
		return nil
	})
	return empty
}

// CopyDir merges the tree under src into dst, creating directories as
// needed and overwriting files that already exist in dst. Symlinks are
// recreated with the same target, so bundles such as
// Foo.framework/Versions/Current keep their layout.
func CopyDir(fs billy.Filesystem, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return &DirError{Op: "copy", Path: src, Err: err}
	}
	if !info.IsDir() {
		return &DirError{Op: "copy", Path: src, Err: fmt.Errorf("not a directory")}
	}
	err = util.Walk(fs, src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := fs.Join(dst, rel)
		switch {
		case fi.Mode()&os.ModeSymlink != 0:
			return copyLink(fs, path, target)
		case fi.IsDir():
			return fs.MkdirAll(target, 0o755)
		}
		return copyFile(fs, path, target, fi.Mode().Perm())
	})
	if err != nil {
		return &DirError{Op: "copy", Path: src, Err: err}
	}
	return nil
}

func copyLink(fs billy.Filesystem, src, dst string) error {
	link, err := fs.Readlink(src)
	if err != nil {
		return err
	}
	if _, err := fs.Lstat(dst); err == nil {
		if err := fs.Remove(dst); err != nil {
			return err
		}
	}
	return fs.Symlink(link, dst)
}

func copyFile(fs billy.Filesystem, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
