package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// SpacesService stores memory page photos in an S3-compatible bucket
// (DigitalOcean Spaces). Keys are namespaced per tenant and memory so a
// page deletion can sweep its prefix.
type SpacesService struct {
	client    *s3.Client
	bucket    string
	region    string
	PhotoRoot string
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, photoRoot string) *SpacesService {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		panic(fmt.Sprintf("Unable to load Spaces config: %v", err))
	}

	client := s3.NewFromConfig(cfg)

	return &SpacesService{
		client:    client,
		bucket:    bucket,
		region:    region,
		PhotoRoot: strings.TrimPrefix(photoRoot, "/"),
	}
}

func (s *SpacesService) photoKey(tenant, memoryID, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s", s.PhotoRoot, tenant, memoryID, filename)
}

// UploadPhoto stores one photo and returns its public URL.
func (s *SpacesService) UploadPhoto(ctx context.Context, tenant, memoryID, filename, contentType string, body io.Reader) (string, error) {
	key := s.photoKey(tenant, memoryID, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
		ACL:         "public-read",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return s.PhotoURL(tenant, memoryID, filename), nil
}

func (s *SpacesService) DeletePhoto(ctx context.Context, tenant, memoryID, filename string) error {
	key := s.photoKey(tenant, memoryID, filename)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo %s: %v", key, err)
	}
	return nil
}

// PhotoURL builds the public CDN URL for a stored photo.
func (s *SpacesService) PhotoURL(tenant, memoryID, filename string) string {
	return fmt.Sprintf("https://%s.%s.cdn.digitaloceanspaces.com/%s",
		s.bucket, s.region, s.photoKey(tenant, memoryID, filename))
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}
