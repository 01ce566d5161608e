package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"tastebook-backend/config"
)

// ImageService stores uploaded images. Files go to S3 when a bucket is
// configured, otherwise under cfg.MediaRoot on local disk.
type ImageService struct {
	mediaRoot string
	bucket    string
	client    *s3.Client
}

func NewImageService(cfg *config.Config) (*ImageService, error) {
	svc := &ImageService{
		mediaRoot: cfg.MediaRoot,
		bucket:    cfg.S3Bucket,
	}

	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		svc.client = s3.NewFromConfig(awsCfg)
	}

	return svc, nil
}

// DecodeDataURI decodes a `data:image/<ext>;base64,<payload>` string into
// raw bytes plus the filename extension derived from the MIME subtype.
func DecodeDataURI(data string) ([]byte, string, error) {
	if !strings.HasPrefix(data, "data:image/") {
		return nil, "", validationError("image must be a data:image base64 URI")
	}

	meta, payload, found := strings.Cut(data, ";base64,")
	if !found {
		return nil, "", validationError("image data URI is not base64 encoded")
	}
	ext := strings.TrimPrefix(meta, "data:image/")
	if ext == "" {
		return nil, "", validationError("image data URI has no MIME subtype")
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", validationError("image payload is not valid base64")
	}

	return decoded, ext, nil
}

// SaveDataURI decodes and stores an image, returning the stored path. Local
// paths are relative to the media root; S3 uploads return an absolute URL.
func (s *ImageService) SaveDataURI(ctx context.Context, dataURI, prefix string) (string, error) {
	data, ext, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%s/%s.%s", prefix, uuid.New().String(), ext)

	if s.client != nil {
		return s.uploadToS3(ctx, data, fileName, ext)
	}

	path := filepath.Join(s.mediaRoot, fileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return fileName, nil
}

// Delete removes a stored image. S3 URLs are left alone; local files are
// removed best-effort.
func (s *ImageService) Delete(path string) error {
	if path == "" || strings.HasPrefix(path, "http") {
		return nil
	}
	err := os.Remove(filepath.Join(s.mediaRoot, path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *ImageService) uploadToS3(ctx context.Context, data []byte, fileName, ext string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, fileName), nil
}
