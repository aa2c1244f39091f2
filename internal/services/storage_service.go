// internal/services/storage_service.go
package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/javajoker/digital-marketplace/internal/config"
)

// StorageService issues download links for asset files. Uploads belong to
// the catalog service.
type StorageService struct {
	s3Client *s3.S3
	config   config.AWSConfig
}

type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewStorageService(cfg config.AWSConfig) (*StorageService, error) {
	if cfg.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: cfg}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// DownloadLink returns a time-limited URL for key. Without S3 credentials the
// link points at the local file server.
func (s *StorageService) DownloadLink(key string) (*DownloadLink, error) {
	if key == "" {
		return nil, fmt.Errorf("asset has no file")
	}

	expiresAt := time.Now().Add(s.config.DownloadURLTTL).UTC()

	if s.s3Client == nil {
		return &DownloadLink{URL: s.localURL(key), ExpiresAt: expiresAt}, nil
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	})

	signed, err := req.Presign(s.config.DownloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &DownloadLink{URL: signed, ExpiresAt: expiresAt}, nil
}

func (s *StorageService) localURL(key string) string {
	base := strings.TrimSuffix(s.config.LocalFilesURL, "/")
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return base + "/" + strings.Join(parts, "/")
}
