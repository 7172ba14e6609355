package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pratik-mahalle/opsguard/internal/config"
)

// S3Store copies backup artifacts to an S3-compatible bucket
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds a client from the backup S3 settings
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Upload stores r under key
func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", s.bucket, s.key(key), err)
	}
	return nil
}

// Delete removes the object stored under key
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s/%s: %w", s.bucket, s.key(key), err)
	}
	return nil
}
