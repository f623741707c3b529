package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"traffic/models"
)

// S3Store keeps the location list as a single object in an S3-compatible
// bucket, so the same list is visible from every device pointing at the
// bucket.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store connects to the MinIO endpoint configured through environment
// variables and makes sure the bucket exists.
func NewS3Store(ctx context.Context, bucket string) (*S3Store, error) {
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	if minioEndpoint == "" || minioAccessKey == "" || minioSecretKey == "" {
		return nil, fmt.Errorf("missing one or more required environment variables: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	minioClient, err := minio.New(minioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioAccessKey, minioSecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	s := &S3Store{client: minioClient, bucket: bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to MinIO endpoint:", minioEndpoint)
	return s, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %v", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %v", s.bucket, err)
		}
	}
	return nil
}

func (s *S3Store) Load(ctx context.Context) ([]*models.Location, error) {
	object, err := s.client.GetObject(ctx, s.bucket, ObjectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %v", err)
	}
	defer object.Close()

	// Use json.NewDecoder to stream the JSON directly from the reader.
	var locations []*models.Location
	if err := json.NewDecoder(object).Decode(&locations); err != nil {
		// GetObject is lazy; a missing document surfaces here as NoSuchKey.
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return []*models.Location{}, nil
		}
		return nil, fmt.Errorf("failed to decode JSON from stream: %v", err)
	}
	return locations, nil
}

func (s *S3Store) Save(ctx context.Context, locations []*models.Location) error {
	data, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("failed to marshal locations to JSON: %v", err)
	}

	_, err = s.client.PutObject(
		ctx,
		s.bucket,
		ObjectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %v", err)
	}
	return nil
}
