/*
Package fetchers provides file fetching functions for local and remote repositories.

Every fetcher resolves paths relative to its own root: a directory on disk, a map key
or a repository root.
*/
package fetchers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

var (
	ErrFileNotFound = errors.New("manifest file not found")
)

// FileFetcher interface defines fetchers methods.
type FileFetcher interface {
	FileContent(ctx context.Context, path string) ([]byte, error)
}

// DirLister is implemented by fetchers able to enumerate the files of a directory.
type DirLister interface {
	// List returns sorted base names of the regular files located directly in dir.
	List(ctx context.Context, dir string) ([]string, error)
}

// ByteMapFetcher is used for storing file contents in memory (usefull for debugging/testing or for building custom repositories logic)
type ByteMapFetcher struct {
	Files map[string][]byte
}

// FileContent retrieves (if found) []byte contents from it's map using path argument as a key.
func (sf ByteMapFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	v, ok := sf.Files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return v, nil
}

// List returns the map keys located directly in dir ('' or '.' is the root).
func (sf ByteMapFetcher) List(ctx context.Context, dir string) ([]string, error) {
	dir = path.Clean(dir)
	var names []string
	for k := range sf.Files {
		if path.Dir(k) == dir {
			names = append(names, path.Base(k))
		}
	}
	sort.Strings(names)
	return names, nil
}

// LocalFetcher reads files from the local filesystem, relative to Root.
type LocalFetcher struct {
	Root string
}

// FileContent reads the whole file. The file handle is closed before returning.
func (lf LocalFetcher) FileContent(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(lf.resolve(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("unable to open '%s': %w", name, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read '%s': %w", name, err)
	}
	return b, nil
}

// List lists regular files of a directory relative to Root.
func (lf LocalFetcher) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(lf.resolve(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, dir)
		}
		return nil, fmt.Errorf("unable to list '%s': %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (lf LocalFetcher) resolve(name string) string {
	if filepath.IsAbs(name) || lf.Root == "" {
		return name
	}
	return filepath.Join(lf.Root, name)
}
