package fsx

import (
	"context"
	"io"
	"net/http"

	"github.com/Abraxas-365/wanderlust/pkg/errx"
)

// FileReader reads files by path relative to the store root
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
}

// FileWriter writes files, creating parents as needed
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
}

// FileSystem is a flat blob store addressed by slash-separated paths
type FileSystem interface {
	FileReader
	FileWriter
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("FS")

var (
	CodeFileNotFound = ErrRegistry.Register("FILE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "File not found")
	CodeInvalidPath  = ErrRegistry.Register("INVALID_PATH", errx.TypeValidation, http.StatusBadRequest, "Invalid file path")
)

func ErrFileNotFound() *errx.Error {
	return ErrRegistry.New(CodeFileNotFound)
}

func ErrInvalidPath() *errx.Error {
	return ErrRegistry.New(CodeInvalidPath)
}
