package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/config"
)

// ImageKind selects the key prefix an uploaded image is stored under.
type ImageKind string

const (
	KindAvatar ImageKind = "avatars"
	KindCover  ImageKind = "covers"
)

// ErrUnsupportedMedia is returned for uploads that are not images.
var ErrUnsupportedMedia = errors.New("unsupported media type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// S3MediaStorage uploads account images to an S3-compatible bucket.
type S3MediaStorage struct {
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3MediaStorage configures an uploader targeting the provided object store.
func NewS3MediaStorage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3MediaStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("media storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3MediaStorage{
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// SaveImage uploads an image and returns its public location.
func (s *S3MediaStorage) SaveImage(ctx context.Context, kind ImageKind, contentType string, r io.Reader) (string, error) {
	key, err := objectKey(kind, contentType)
	if err != nil {
		return "", err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("media storage upload %s: %w", key, err)
	}

	return publicURL(s.baseURL, key), nil
}

func objectKey(kind ImageKind, contentType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := imageExtensions[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, contentType)
	}
	switch kind {
	case KindAvatar, KindCover:
	default:
		return "", fmt.Errorf("media storage: unknown image kind %q", kind)
	}
	return path.Join(string(kind), uuid.NewString()+ext), nil
}

func publicURL(baseURL, key string) string {
	if baseURL == "" {
		return key
	}
	return baseURL + "/" + key
}
