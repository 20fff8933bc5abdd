package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"inkwell/internal/config"
	domain "inkwell/internal/model"
)

// ImageUploader is what handlers need from media storage.
type ImageUploader interface {
	UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error)
	UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error)
}

// objectStore is the subset of the S3 client MediaService uses.
type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaService handles media uploads to Cloudflare R2.
type MediaService struct {
	store     objectStore
	bucket    string
	publicURL string
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if !cfg.MediaEnabled() {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		store:     s3Client,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// UploadAvatar enforces size/type, normalizes to 200x200 JPEG, and uploads to R2.
func (s *MediaService) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	data, err := readAndValidateImage(file, header, domain.MaxAvatarSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := encodeJPEG(data, func(img image.Image) image.Image {
		return imaging.Fill(img, domain.AvatarWidth, domain.AvatarHeight, imaging.Center, imaging.Lanczos)
	})
	if err != nil {
		return nil, err
	}

	return s.upload(ctx, domain.AvatarFolder, domain.AvatarExt, jpegBytes, domain.AvatarCacheControl)
}

// UploadPostImage shrinks the image to fit 1280x1280 (never enlarging) and
// uploads it as JPEG.
func (s *MediaService) UploadPostImage(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	data, err := readAndValidateImage(file, header, domain.MaxPostImageSize)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := encodeJPEG(data, func(img image.Image) image.Image {
		b := img.Bounds()
		if b.Dx() <= domain.PostImageMaxWidth && b.Dy() <= domain.PostImageMaxHeight {
			return img
		}
		return imaging.Fit(img, domain.PostImageMaxWidth, domain.PostImageMaxHeight, imaging.Lanczos)
	})
	if err != nil {
		return nil, err
	}

	return s.upload(ctx, domain.PostImageFolder, domain.PostImageExt, jpegBytes, domain.PostImageCacheControl)
}

func (s *MediaService) upload(ctx context.Context, folder, ext string, body []byte, cacheControl string) (*domain.UploadResult, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)

	if err := s.putObject(ctx, key, body, domain.ContentTypeJPEG, cacheControl); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s", s.publicURL, key)
	return &domain.UploadResult{URL: url, Key: key}, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file io.Reader, header *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if header.Size > maxSize {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, domain.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return nil, domain.ErrInvalidImageType
	}

	return data, nil
}

// encodeJPEG decodes data, applies transform and re-encodes at quality 85.
func encodeJPEG(data []byte, transform func(image.Image) image.Image) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageType, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, transform(img), imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// putObject uploads bytes to R2 with metadata.
func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error {
	_, err := s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// DeleteObject removes an object by key. Empty keys are ignored.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}
