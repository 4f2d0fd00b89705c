// Package osfs holds the small filesystem helpers shared by the batch tools.
package osfs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/maktaba-project/maktaba/core/errors"
)

// CheckDir verifies that path exists and is a directory.
func CheckDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.NewIO("stat", path, errors.ErrNotFound)
	}
	return nil
}

// EnsureParent creates the parent directory of path if needed.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("mkdir", dir, err)
	}
	return nil
}

// MoveFile renames source to target, creating the target's parent and
// falling back to copy-and-remove when rename crosses filesystems.
func MoveFile(source, target string) error {
	if err := EnsureParent(target); err != nil {
		return err
	}
	if err := os.Rename(source, target); err == nil {
		return nil
	}
	if err := copyFile(source, target); err != nil {
		return err
	}
	if err := os.Remove(source); err != nil {
		return errors.NewIO("remove", source, err)
	}
	return nil
}

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return errors.NewIO("open", source, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.NewIO("stat", source, err)
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.NewIO("create", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.NewIO("copy", target, err)
	}
	return out.Close()
}
