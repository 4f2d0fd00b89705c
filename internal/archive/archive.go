// Package archive writes and restores tar.xz snapshots of corpus
// directories. Rename transactions snapshot each affected directory before
// the first move so a botched batch can be rolled back by hand.
package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/maktaba-project/maktaba/core/errors"
)

// Snapshot writes a tar.xz archive of srcDir to dstPath. Entries are stored
// relative to srcDir, in lexical order, so two snapshots of identical trees
// are byte-identical.
func Snapshot(srcDir, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return errors.NewIO("mkdir", filepath.Dir(dstPath), err)
	}

	var files []string
	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return errors.NewIO("walk", srcDir, err)
	}
	sort.Strings(files)

	out, err := os.Create(dstPath)
	if err != nil {
		return errors.NewIO("create", dstPath, err)
	}
	defer out.Close()

	xw, err := xz.NewWriter(out)
	if err != nil {
		return errors.Wrap(err, "xz writer")
	}
	tw := tar.NewWriter(xw)

	for _, p := range files {
		if err := addFile(tw, srcDir, p); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "close tar")
	}
	if err := xw.Close(); err != nil {
		return errors.Wrap(err, "close xz")
	}
	return out.Close()
}

func addFile(tw *tar.Writer, srcDir, p string) error {
	rel, err := filepath.Rel(srcDir, p)
	if err != nil {
		return errors.NewIO("rel", p, err)
	}

	in, err := os.Open(p)
	if err != nil {
		return errors.NewIO("open", p, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.NewIO("stat", p, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return errors.Wrap(err, "tar header")
	}
	hdr.Name = filepath.ToSlash(rel)

	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrap(err, "write tar header")
	}
	if _, err := io.Copy(tw, in); err != nil {
		return errors.NewIO("copy", p, err)
	}
	return nil
}

// Restore unpacks a tar.xz snapshot into dstDir, creating it if needed.
// Entries escaping dstDir are rejected.
func Restore(archivePath, dstDir string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return errors.NewIO("open", archivePath, err)
	}
	defer in.Close()

	xr, err := xz.NewReader(in)
	if err != nil {
		return errors.Wrap(err, "xz reader")
	}
	tr := tar.NewReader(xr)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read tar")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.FromSlash(hdr.Name)
		if strings.Contains(hdr.Name, "..") || filepath.IsAbs(name) {
			return errors.Wrapf(errors.ErrNotFound, "unsafe archive entry %q", hdr.Name)
		}
		target := filepath.Join(dstDir, name)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.NewIO("mkdir", filepath.Dir(target), err)
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fs.FileMode(hdr.Mode).Perm())
		if err != nil {
			return errors.NewIO("create", target, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return errors.NewIO("copy", target, err)
		}
		if err := out.Close(); err != nil {
			return errors.NewIO("close", target, err)
		}
	}
}
