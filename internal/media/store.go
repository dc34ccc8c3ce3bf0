// Package media stores item icons and images in an S3-compatible bucket.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"skins-market/internal/domain"
)

const (
	KindIcon  = "icon"
	KindImage = "image"
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewStore connects to endpoint and creates bucket when it does not exist.
func NewStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}
	return &Store{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// PutItemImage uploads r and returns its public URL.
func (s *Store) PutItemImage(ctx context.Context, itemID int64, kind, contentType string, r io.Reader, size int64) (string, error) {
	name, err := ObjectName(itemID, kind, contentType)
	if err != nil {
		return "", err
	}
	if _, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return s.publicURL + "/" + s.bucket + "/" + name, nil
}

// ObjectName builds a unique object key for an item image.
func ObjectName(itemID int64, kind, contentType string) (string, error) {
	if kind != KindIcon && kind != KindImage {
		return "", domain.Invalid("kind", "must be icon or image")
	}
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return "", domain.Invalid("file", "unsupported content type "+contentType)
	}
	return fmt.Sprintf("items/%d/%s-%s%s", itemID, kind, uuid.NewString(), ext), nil
}
