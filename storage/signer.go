package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gosimple/slug"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Signer issues time-limited read-only URLs for stored objects.
type Signer interface {
	SignedURL(ctx context.Context, bucket string, objectPath string, expires time.Duration) (string, error)
}

// MinioSigner signs against a MinIO/S3 endpoint using presigned GET requests.
type MinioSigner struct {
	client *minio.Client
}

// NewMinioSigner Create a signer for the S3-compatible endpoint
func NewMinioSigner(endpoint string, accessKey string, secretKey string, useSSL bool) (*MinioSigner, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("storage credentials are required")
	}

	// Accept both bare hosts and full URLs as endpoint.
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		if u.Scheme == "https" {
			useSSL = true
		}
		endpoint = u.Host
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create storage client: %w", err)
	}
	return &MinioSigner{client: client}, nil
}

// SignedURL Presign a GET for the object, valid for the given duration
func (s *MinioSigner) SignedURL(ctx context.Context, bucket string, objectPath string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, objectPath, expires, url.Values{})
	if err != nil {
		return "", fmt.Errorf("cannot sign %s/%s: %w", bucket, objectPath, err)
	}
	return u.String(), nil
}

// ObjectPath Build the canonical object path for a curated file
func ObjectPath(datastoreID string, fileID string) string {
	return fmt.Sprintf("curated/datastore/%s/file/%s/source/%s", datastoreID, fileID, slug.Make(fileID))
}
