package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/Abraxas-365/wanderlust/pkg/errx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used here
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3FileSystem stores files as objects under an optional key prefix
type S3FileSystem struct {
	client S3API
	bucket string
	prefix string
}

var _ fsx.FileSystem = (*S3FileSystem)(nil)

func NewS3FileSystem(client S3API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3FileSystem) key(p string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" {
		return "", fsx.ErrInvalidPath().WithDetail("path", p)
	}
	if s.prefix == "" {
		return clean, nil
	}
	return s.prefix + "/" + clean, nil
}

func (s *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	body, err := s.ReadFileStream(ctx, p)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errx.Wrap(err, "failed to read S3 object", errx.TypeExternal)
	}
	return data, nil
}

func (s *S3FileSystem) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := s.key(p)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fsx.ErrFileNotFound().WithDetail("path", p)
		}
		return nil, errx.Wrap(err, "failed to get S3 object", errx.TypeExternal)
	}
	return out.Body, nil
}

func (s *S3FileSystem) WriteFile(ctx context.Context, p string, data []byte) error {
	key, err := s.key(p)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return errx.Wrap(err, "failed to put S3 object", errx.TypeExternal)
	}
	return nil
}

func (s *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	key, err := s.key(p)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, errx.Wrap(err, "failed to head S3 object", errx.TypeExternal)
	}
	return true, nil
}

func (s *S3FileSystem) Delete(ctx context.Context, p string) error {
	key, err := s.key(p)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errx.Wrap(err, "failed to delete S3 object", errx.TypeExternal)
	}
	return nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
