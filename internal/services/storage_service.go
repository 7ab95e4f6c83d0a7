// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

const (
	FolderProducts        = "produtos"
	FolderProfilePictures = "utilizadores"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// StorageService stores base64 images in S3, or keeps them inline as data URIs when S3 is not configured.
type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	// Create AWS session
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

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// NewStorageServiceWithClient is used when the S3 client is built elsewhere.
func NewStorageServiceWithClient(config *config.Config, client s3iface.S3API) *StorageService {
	return &StorageService{s3Client: client, config: config}
}

// StoreImage validates a base64 image (raw or data URI) and returns the value to persist.
func (s *StorageService) StoreImage(ctx context.Context, folder, name, payload string) (string, error) {
	data, contentType, err := s.decodeImage(payload)
	if err != nil {
		return "", err
	}

	if s.s3Client == nil {
		return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	key := path.Join(folder, sanitizeKeyPart(name)+"-"+uuid.NewString()+imageExtensions[contentType])
	return s.uploadToS3(ctx, data, key, contentType)
}

func (s *StorageService) decodeImage(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", utils.ErrValidation(i18n.KeyImageInvalid)
	}

	declared := ""
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, "", utils.ErrValidation(i18n.KeyImageInvalid)
		}
		declared = strings.TrimSuffix(strings.TrimPrefix(payload[:comma], "data:"), ";base64")
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", utils.ErrValidation(i18n.KeyImageInvalid).Wrap(err)
	}

	if max := s.config.AWS.MaxImageBytes; max > 0 && len(data) > max {
		return nil, "", utils.ErrValidation(i18n.KeyImageTooLarge)
	}

	contentType := http.DetectContentType(data)
	if !isValidImageType(contentType) {
		return nil, "", utils.ErrValidation(i18n.KeyImageInvalid)
	}
	if declared != "" && declared != contentType && !(declared == "image/jpg" && contentType == "image/jpeg") {
		return nil, "", utils.ErrValidation(i18n.KeyImageInvalid)
	}

	return data, contentType, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (string, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}

	return s.publicURL(key), nil
}

func (s *StorageService) publicURL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return strings.TrimRight(s.config.AWS.CloudFrontURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

func isValidImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

func sanitizeKeyPart(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "imagem"
	}
	return b.String()
}
