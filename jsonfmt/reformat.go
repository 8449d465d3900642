package jsonfmt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	ErrInputMissing = errors.New("input file not found")
	ErrOutputExists = errors.New("output file already exists")
)

// defaultPerm is used when the destination does not exist yet.
const defaultPerm fs.FileMode = 0o644

// Options specifies the parameters to Reformat().
type Options struct {
	// Input is the document to reformat.
	Input string
	// Output is the destination, the input is rewritten in place when empty.
	Output string
	// Force allows overwriting an existing output distinct from the input.
	Force bool
	// ASCII escapes non-ASCII and HTML-sensitive characters.
	ASCII bool
	// Logger receives debug messages, nothing is logged when nil.
	Logger *slog.Logger
}

// Reformat reads opts.Input, formats it and replaces opts.Output with the result.
//
// The destination is replaced by renaming a fully written temporary file from the same
// directory over it, so readers observe either the previous or the new content. Nothing
// is written when the input is not valid JSON.
func Reformat(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Input == "" {
		return fmt.Errorf("%w: no input file given", ErrInputMissing)
	}

	inInfo, err := os.Stat(opts.Input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputMissing, opts.Input)
		}
		return fmt.Errorf("unable to stat input file: %w", err)
	}
	if inInfo.IsDir() {
		return fmt.Errorf("input '%s' is a directory", opts.Input)
	}

	output := opts.Output
	if output == "" {
		output = opts.Input
	}

	perm := defaultPerm
	outInfo, err := os.Stat(output)
	switch {
	case err == nil:
		if outInfo.IsDir() {
			return fmt.Errorf("output '%s' is a directory", output)
		}
		if !opts.Force && !samePath(opts.Input, output, inInfo, outInfo) {
			return fmt.Errorf("%w: %s", ErrOutputExists, output)
		}
		perm = outInfo.Mode().Perm()
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("unable to stat output file: %w", err)
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("unable to read input file: %w", err)
	}

	formatted, err := format(data, opts.ASCII)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.Input, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeAtomic(output, formatted, perm); err != nil {
		return err
	}

	logger.Debug("document reformatted", "input", opts.Input, "output", output, "bytes", len(formatted), "ascii", opts.ASCII)
	return nil
}

// samePath reports whether both paths designate the same file.
func samePath(a, b string, aInfo, bInfo fs.FileInfo) bool {
	if os.SameFile(aInfo, bInfo) {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// writeAtomic writes data to a file atomically by writing to a temp file and renaming it.
func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)

	// Create temp file in the same directory
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create a temporary file: %w", err)
	}
	tmpName := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("unable to write the temporary file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("unable to flush the temporary file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("unable to close the temporary file: %w", err)
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("unable to chmod the temporary file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("unable to replace '%s': %w", path, err)
	}

	return nil
}
