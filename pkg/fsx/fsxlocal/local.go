package fsxlocal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx"
)

// LocalFileSystem stores files under a base directory
type LocalFileSystem struct {
	basePath string
}

var _ fsx.FileSystem = (*LocalFileSystem)(nil)

// NewLocalFileSystem creates the base directory if needed. An empty base
// means the working directory.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if basePath == "" {
		basePath = "."
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errx.Wrap(err, "failed to resolve base path", errx.TypeInternal)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errx.Wrap(err, "failed to create base path", errx.TypeInternal)
	}

	return &LocalFileSystem{basePath: abs}, nil
}

func (l *LocalFileSystem) GetBasePath() string {
	return l.basePath
}

func (l *LocalFileSystem) resolve(path string) (string, error) {
	full := filepath.Join(l.basePath, filepath.FromSlash(path))
	rel, err := filepath.Rel(l.basePath, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fsx.ErrInvalidPath().WithDetail("path", path)
	}
	return full, nil
}

func (l *LocalFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fsx.ErrFileNotFound().WithDetail("path", path)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to read file", errx.TypeInternal)
	}
	return data, nil
}

func (l *LocalFileSystem) ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fsx.ErrFileNotFound().WithDetail("path", path)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to open file", errx.TypeInternal)
	}
	return f, nil
}

func (l *LocalFileSystem) WriteFile(ctx context.Context, path string, data []byte) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errx.Wrap(err, "failed to create directory", errx.TypeInternal)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errx.Wrap(err, "failed to write file", errx.TypeInternal)
	}
	return nil
}

func (l *LocalFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	full, err := l.resolve(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errx.Wrap(err, "failed to stat file", errx.TypeInternal)
	}
	return true, nil
}

func (l *LocalFileSystem) Delete(ctx context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errx.Wrap(err, "failed to delete file", errx.TypeInternal)
	}
	return nil
}
