package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// ImageUploader puts product images into an S3-compatible bucket and hands
// back their public URL.
type ImageUploader struct {
	client *s3.Client
	bucket string
	region string
}

// NewImageUploader builds an uploader from the ambient AWS configuration.
func NewImageUploader(ctx context.Context, bucket, region string) (*ImageUploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &ImageUploader{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

// Upload stores data under a fresh object key derived from filename.
// Permission rejections map to ErrPermissionDenied so the web layer can show
// the specific message; everything else stays generic.
func (u *ImageUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := "products/" + uuid.NewString() + sanitizedExt(filename)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied" {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, apiErr.ErrorMessage())
		}
		return "", fmt.Errorf("failed to upload image %s: %w", filename, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}

func sanitizedExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	}
	return ""
}
