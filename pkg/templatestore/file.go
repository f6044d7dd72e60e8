package templatestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/macropower/draftkit/pkg/drafterrors"
)

// ImportFile stores the drawing at path. An empty name uses the file's base
// name without its extension.
func (s *Store) ImportFile(ctx context.Context, kind Kind, name, path string, overwrite bool) (Template, error) {
	if !strings.EqualFold(filepath.Ext(path), DrawingExt) {
		return Template{}, fmt.Errorf("%w: %s", drafterrors.ErrNotDrawing, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Template{}, fmt.Errorf("%w: %s", drafterrors.ErrFileNotFound, path)
		}

		return Template{}, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return s.Put(ctx, kind, name, f, overwrite)
}

// Export writes the template to dest.
func (s *Store) Export(ctx context.Context, kind Kind, name, dest string) error {
	raw, err := s.Get(ctx, kind, name)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dest, raw, 0o644); err != nil {
		return fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}

	return nil
}

// Materialize writes the template to a scratch directory as <name>.dwg and
// returns the file's path. Repeated calls return the same file. Files are
// removed by [Store.Close].
func (s *Store) Materialize(ctx context.Context, kind Kind, name string) (string, error) {
	raw, err := s.Get(ctx, kind, name)
	if err != nil {
		return "", err
	}

	dir, err := s.paths.Dir(string(kind) + "/" + name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name+DrawingExt)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", drafterrors.ErrWriteFile, err)
	}

	return path, nil
}
