// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/config"
)

type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

type UploadResult struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Key       string `json:"key"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Local disk storage for development
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewStorageServiceWithClient(s3.New(sess), config), nil
}

func NewStorageServiceWithClient(client s3iface.S3API, config *config.Config) *StorageService {
	return &StorageService{
		s3Client: client,
		config:   config,
	}
}

// ProductImageOptions is the policy for admin product image uploads.
func (s *StorageService) ProductImageOptions() UploadOptions {
	maxMB := s.config.Upload.MaxSizeMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return UploadOptions{
		Folder:       "products",
		MaxSize:      int64(maxMB) * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		IsPublic:     true,
	}
}

// UploadFile sniffs the content type, enforces the options and stores the
// file on S3 or, without AWS credentials, on local disk.
func (s *StorageService) UploadFile(ctx context.Context, file io.Reader, filename string, options UploadOptions) (*UploadResult, error) {
	limit := options.MaxSize
	if limit <= 0 {
		limit = 10 * 1024 * 1024
	}

	fileBytes, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(fileBytes)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidFile, limit)
	}
	if len(fileBytes) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}

	mime := mimetype.Detect(fileBytes)
	if len(options.AllowedTypes) > 0 && !mimetype.EqualsAny(mime.String(), options.AllowedTypes...) {
		return nil, fmt.Errorf("%w: type %s is not allowed", ErrInvalidFile, mime.String())
	}

	key := s.generateFileName(filename, mime.Extension(), options.Folder)

	if s.s3Client != nil {
		return s.uploadToS3(ctx, fileBytes, key, mime.String(), options.IsPublic)
	}
	return s.uploadToLocal(fileBytes, key, mime.String())
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string, isPublic bool) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if isPublic {
		params.ACL = aws.String("public-read")
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := s.getS3URL(key)
	return &UploadResult{
		SecureURL: url,
		URL:       url,
		Key:       key,
		Size:      int64(len(fileBytes)),
		MimeType:  contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.config.Upload.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	logrus.WithField("path", path).Debug("Stored upload on local disk")

	url := strings.TrimSuffix(s.config.Upload.PublicURL, "/") + "/" + key
	return &UploadResult{
		SecureURL: url,
		URL:       url,
		Key:       key,
		Size:      int64(len(fileBytes)),
		MimeType:  contentType,
	}, nil
}

func (s *StorageService) generateFileName(originalName, sniffedExt, folder string) string {
	id := uuid.New()

	ext := strings.ToLower(filepath.Ext(originalName))
	if sniffedExt != "" {
		ext = sniffedExt
	}

	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
