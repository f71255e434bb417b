package utils

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadPolicy bounds what a presigned upload URL accepts.
type UploadPolicy struct {
	ContentTypePrefix string
	MinBytes          int64
	MaxBytes          int64
	TTL               time.Duration
}

// Validate checks that the policy is self-consistent.
func (p UploadPolicy) Validate() error {
	if p.ContentTypePrefix == "" {
		return fmt.Errorf("upload policy: content type prefix is required")
	}
	if p.MinBytes < 1 || p.MaxBytes < p.MinBytes {
		return fmt.Errorf("upload policy: invalid size range %d..%d", p.MinBytes, p.MaxBytes)
	}
	if p.TTL <= 0 {
		return fmt.Errorf("upload policy: ttl must be positive")
	}
	return nil
}

// contentType picks the concrete content type signed into the URL. Keys
// carry the extension chosen by the caller; jpeg is the default.
func (p UploadPolicy) contentType(key string) string {
	if !strings.HasSuffix(p.ContentTypePrefix, "/") {
		return p.ContentTypePrefix
	}
	switch {
	case strings.HasSuffix(key, ".png"):
		return p.ContentTypePrefix + "png"
	case strings.HasSuffix(key, ".webp"):
		return p.ContentTypePrefix + "webp"
	}
	return p.ContentTypePrefix + "jpeg"
}

// S3API is the subset of the S3 client used by S3Objects.
type S3API interface {
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// S3Presigner is the subset of the S3 presign client used by S3Objects.
type S3Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Objects issues time-limited object URLs for the assets bucket and
// copies objects within it.
type S3Objects struct {
	client  S3API
	presign S3Presigner
	bucket  string
}

// LoadAWSConfig loads the shared AWS configuration for region.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}

// NewS3Objects builds S3Objects from an AWS config.
func NewS3Objects(cfg aws.Config, bucket string) *S3Objects {
	client := s3.NewFromConfig(cfg)
	return &S3Objects{client: client, presign: s3.NewPresignClient(client), bucket: bucket}
}

// IssueUploadURL generates a presigned PUT URL for objectKey. Nothing is
// stored at issuance time.
func (o *S3Objects) IssueUploadURL(ctx context.Context, objectKey string, policy UploadPolicy) (string, error) {
	if err := policy.Validate(); err != nil {
		return "", err
	}
	request, err := o.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(policy.contentType(objectKey)),
	}, s3.WithPresignExpires(policy.TTL))
	if err != nil {
		return "", fmt.Errorf("failed to sign upload request: %w", err)
	}
	return request.URL, nil
}

// IssueDownloadURL generates a presigned GET URL for objectKey.
func (o *S3Objects) IssueDownloadURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	request, err := o.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return request.URL, nil
}

// CopyObject copies srcKey to dstKey inside the bucket.
func (o *S3Objects) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := o.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(o.bucket),
		CopySource: aws.String(o.bucket + "/" + escapeKey(srcKey)),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", srcKey, dstKey, err)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
