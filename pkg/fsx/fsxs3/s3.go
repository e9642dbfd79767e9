// Package fsxs3 implements the fsx store on S3.
package fsxs3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Abraxas-365/chatstream/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store keeps objects in one S3 bucket under an optional key prefix
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewStore creates an S3-backed store
func NewStore(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Put uploads one object and returns its reference
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (fsx.Object, error) {
	full := s.fullKey(key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(full),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fsx.Object{}, fmt.Errorf("s3 put %s: %w", full, err)
	}

	return fsx.Object{
		Key:         key,
		URL:         fmt.Sprintf("s3://%s/%s", s.bucket, full),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Get downloads one object
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	full := s.fullKey(key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", full, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// Delete removes one object
func (s *Store) Delete(ctx context.Context, key string) error {
	full := s.fullKey(key)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", full, err)
	}
	return nil
}
