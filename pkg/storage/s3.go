package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the slice of the S3 API that S3Store needs. An [s3.Client]
// satisfies it; tests substitute an in-memory fake.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store serves corpus archives out of an S3 bucket (or any
// S3-compatible store). Storage paths map to object keys under an
// optional prefix, so one bucket can hold several corpora side by side
// ("corpora/librispeech/train-clean-100.zip"). Credentials, region and
// endpoint come from the injected client.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 wraps an already configured client as a FileStore over bucket.
// prefix is prepended to every object key; pass "" for none.
func NewS3(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

// Read streams the named object. A missing key is reported as an error
// wrapping os.ErrNotExist, matching the Local store.
func (s *S3Store) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if objectMissing(err) {
			return nil, fmt.Errorf("storage: read %s: %w", path, os.ErrNotExist)
		}
		return nil, err
	}
	return out.Body, nil
}

// Write uploads to the named object through a pipe feeding a background
// PutObject. Close blocks until the upload finishes and returns its
// error, so callers see upload failures at the usual place.
func (s *S3Store) Write(ctx context.Context, path string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &s3Upload{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		_, w.err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(path)),
			Body:   pr,
		})
		// Unblock pending Write calls when the upload fails early.
		pr.CloseWithError(w.err)
	}()
	return w, nil
}

// Delete removes the named object. S3 already treats deletes of missing
// keys as success, which matches the FileStore contract.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	return err
}

// Exists probes the named object with HeadObject.
func (s *S3Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if objectMissing(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// s3Upload feeds a background PutObject through an io.Pipe.
type s3Upload struct {
	pw   *io.PipeWriter
	done chan struct{}
	err  error
}

func (w *s3Upload) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close signals EOF to the upload and waits for it to finish.
func (w *s3Upload) Close() error {
	w.pw.Close()
	<-w.done
	return w.err
}

// objectMissing reports whether err is an S3 not-found response.
// HeadObject surfaces "NotFound", GetObject "NoSuchKey".
func objectMissing(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ FileStore = (*S3Store)(nil)
