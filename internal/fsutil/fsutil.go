// Package fsutil holds the small filesystem primitives shared by the
// executor, the trash store and the restore engine.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// ErrExists is returned by RenameNoReplace when newpath is already taken.
var ErrExists = os.ErrExist

// Exists reports whether something (file, directory or dangling symlink)
// is present at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// RenameNoReplace renames oldpath to newpath, failing with an error that
// wraps ErrExists instead of overwriting an existing newpath.
func RenameNoReplace(oldpath, newpath string) error {
	err := renameNoReplace(oldpath, newpath)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: ErrExists}
	}
	return err
}

// MoveNoReplace is RenameNoReplace that also crosses filesystems: a regular
// file on another device is copied to newpath and then removed. Other
// entries fail with an error wrapping syscall.EXDEV.
func MoveNoReplace(oldpath, newpath string) error {
	err := RenameNoReplace(oldpath, newpath)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	return copyNoReplace(oldpath, newpath)
}

func copyNoReplace(oldpath, newpath string) error {
	info, err := os.Lstat(oldpath)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return &os.LinkError{Op: "move", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}

	src, err := os.Open(oldpath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(newpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if errors.Is(err, os.ErrExist) {
		return &os.LinkError{Op: "move", Old: oldpath, New: newpath, Err: ErrExists}
	}
	if err != nil {
		return err
	}
	_, cerr := io.Copy(dst, src)
	serr := dst.Sync()
	if err := errors.Join(cerr, serr, dst.Close()); err != nil {
		os.Remove(newpath)
		return fmt.Errorf("copying %s: %w", oldpath, err)
	}
	_ = os.Chtimes(newpath, info.ModTime(), info.ModTime())

	if err := os.Remove(oldpath); err != nil {
		os.Remove(newpath)
		return fmt.Errorf("removing %s after copy: %w", oldpath, err)
	}
	return nil
}

// checkedRename is the portable fallback: check, then rename. A file that
// appears between the two calls is overwritten.
func checkedRename(oldpath, newpath string) error {
	if Exists(newpath) {
		return os.ErrExist
	}
	return os.Rename(oldpath, newpath)
}

// WriteFileAtomic writes data to path using the temp-file, fsync, rename
// pattern so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
