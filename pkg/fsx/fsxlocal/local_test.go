package fsxlocal_test

import (
	"context"
	"io"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx/fsxlocal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileSystem(t *testing.T) {
	ctx := context.Background()
	fs, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	ok, err := fs.Exists(ctx, "transcripts/t1.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.WriteFile(ctx, "transcripts/t1.json", []byte(`{"a":1}`)))

	ok, err = fs.Exists(ctx, "transcripts/t1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := fs.ReadFile(ctx, "transcripts/t1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	rc, err := fs.ReadFileStream(ctx, "transcripts/t1.json")
	require.NoError(t, err)
	streamed, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, streamed)

	require.NoError(t, fs.Delete(ctx, "transcripts/t1.json"))
	require.NoError(t, fs.Delete(ctx, "transcripts/t1.json"))

	_, err = fs.ReadFile(ctx, "transcripts/t1.json")
	assert.True(t, errx.Is(err, fsx.CodeFileNotFound))
}

func TestLocalFileSystem_RejectsEscapes(t *testing.T) {
	fs, err := fsxlocal.NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	for _, path := range []string{"../outside.txt", "a/../../outside.txt", ""} {
		err := fs.WriteFile(context.Background(), path, []byte("x"))
		assert.True(t, errx.Is(err, fsx.CodeInvalidPath), "path %q", path)
	}
}
