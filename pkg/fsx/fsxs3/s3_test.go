package fsxs3_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx/fsxs3"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3FileSystem(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fs := fsxs3.NewS3FileSystem(fake, "bucket", "/archive/")

	require.NoError(t, fs.WriteFile(ctx, "transcripts/t1.json", []byte(`[]`)))
	assert.Contains(t, fake.objects, "bucket/archive/transcripts/t1.json")
	assert.Equal(t, "application/json", fake.types["archive/transcripts/t1.json"])

	ok, err := fs.Exists(ctx, "transcripts/t1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := fs.ReadFile(ctx, "/transcripts/t1.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	require.NoError(t, fs.Delete(ctx, "transcripts/t1.json"))

	ok, err = fs.Exists(ctx, "transcripts/t1.json")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fs.ReadFile(ctx, "transcripts/t1.json")
	assert.True(t, errx.Is(err, fsx.CodeFileNotFound))
}

func TestS3FileSystem_KeyNormalisation(t *testing.T) {
	fake := newFakeS3()
	fs := fsxs3.NewS3FileSystem(fake, "bucket", "")

	require.NoError(t, fs.WriteFile(context.Background(), "../a/./b.md", []byte("x")))
	assert.Contains(t, fake.objects, "bucket/a/b.md")

	err := fs.WriteFile(context.Background(), "/", []byte("x"))
	assert.True(t, errx.Is(err, fsx.CodeInvalidPath))
}
