// Package fileutil reads and writes the small workspace files changeplan
// works with: manifests, changesets and the pre state.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxInputFileSize bounds every file ReadInput accepts.
const MaxInputFileSize int64 = 4 << 20

var ErrTooLarge = errors.New("file exceeds size limit")

// ReadInput reads a workspace file of at most MaxInputFileSize bytes.
func ReadInput(path string) ([]byte, error) {
	return readLimited(path, MaxInputFileSize)
}

func readLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from workspace discovery
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if info, err := f.Stat(); err != nil {
		return nil, err
	} else if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	// Read one byte past the limit so growth after Stat is caught too.
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, path, limit)
	}
	return data, nil
}

// stagedFile is the subset of *os.File AtomicWriteFile uses.
type stagedFile interface {
	io.Writer
	Name() string
	Chmod(os.FileMode) error
	Sync() error
	Close() error
}

// filesystem lets tests fail individual steps of an atomic write.
type filesystem struct {
	stage  func(dir, pattern string) (stagedFile, error)
	rename func(from, to string) error
	remove func(path string) error
}

var osFilesystem = filesystem{
	stage:  func(dir, pattern string) (stagedFile, error) { return os.CreateTemp(dir, pattern) },
	rename: os.Rename,
	remove: os.Remove,
}

// AtomicWriteFile replaces path with data through a temporary file in the
// same directory, so concurrent readers see the old or the new content.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return osFilesystem.writeAtomic(path, data, perm)
}

func (fsys filesystem) writeAtomic(path string, data []byte, perm os.FileMode) (err error) {
	f, err := fsys.stage(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	staged := f.Name()
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = f.Close()
		}
		_ = fsys.remove(staged)
	}()

	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("chmod staged file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync staged file: %w", err)
	}
	closed = true
	if err := f.Close(); err != nil {
		return fmt.Errorf("close staged file: %w", err)
	}
	if err := fsys.rename(staged, path); err != nil {
		return fmt.Errorf("rename staged file onto %s: %w", path, err)
	}
	return nil
}

// WriteNewFile creates path, and any missing parent directories, holding
// data. It fails with an error matching os.ErrExist instead of replacing an
// existing file.
func WriteNewFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) // #nosec G304 -- caller builds path
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
