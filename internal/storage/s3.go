package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3Config holds settings for the avatars bucket. Endpoint and path style
// exist so S3-compatible providers work too.
type S3Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
	Prefix        string
}

// S3AvatarStore uploads avatars to an S3 bucket and serves them from a
// public base URL.
type S3AvatarStore struct {
	cfg    S3Config
	client *s3.Client
}

// NewS3AvatarStore validates the configuration and builds the client.
func NewS3AvatarStore(cfg S3Config) (*S3AvatarStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("s3 public base url is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "avatars"
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3AvatarStore{cfg: cfg, client: s3.New(options)}, nil
}

// UploadAvatar validates and uploads the image, returning its public URL.
func (s *S3AvatarStore) UploadAvatar(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if err := ValidateAvatar(contentType, int64(len(data))); err != nil {
		return "", err
	}
	key := s.objectKey(userID, contentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar to s3: %w", err)
	}
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key, nil
}

func (s *S3AvatarStore) objectKey(userID, contentType string) string {
	prefix := strings.Trim(s.cfg.Prefix, "/")
	return path.Join(prefix, userID, uuid.NewString()+avatarExtension(contentType))
}

var _ AvatarStore = (*S3AvatarStore)(nil)
