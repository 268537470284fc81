package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// UploadResult describes a stored object.
type UploadResult struct {
	Bucket       string
	Object       string
	Size         int64
	PresignedURL string
}

// ObjectStorageClient is the archive's view of an S3-compatible store.
type ObjectStorageClient interface {
	Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool) error
	UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader, size int64, contentType string) (UploadResult, error)
}

// ObjectStorage holds the object storage client instance.
type ObjectStorage struct {
	Conn          *minio.Client
	Region        string
	PresignExpiry time.Duration
}

// NewObjectStorage initialization
func NewObjectStorage(region string, presignExpiry time.Duration) *ObjectStorage {
	if region == "" {
		region = "us-east-1"
	}
	if presignExpiry <= 0 {
		presignExpiry = 7 * 24 * time.Hour
	}
	return &ObjectStorage{Region: region, PresignExpiry: presignExpiry}
}

// Connect establishes the object storage connection using client
func (o *ObjectStorage) Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool) error {
	var err error
	o.Conn, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
		Region: o.Region,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	// Check connection by listing buckets
	if _, err := o.Conn.ListBuckets(ctx); err != nil {
		return fmt.Errorf("failed to establish minio connection: %w", err)
	}

	return nil
}

// UploadFile stores content under objectName, creating the bucket when it
// does not exist, and returns a presigned download URL.
func (o *ObjectStorage) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader, size int64, contentType string) (UploadResult, error) {
	if o.Conn == nil {
		return UploadResult{}, fmt.Errorf("object storage not connected")
	}

	exists, err := o.Conn.BucketExists(ctx, bucketName)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := o.Conn.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: o.Region}); err != nil {
			return UploadResult{}, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	info, err := o.Conn.PutObject(ctx, bucketName, objectName, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	presigned, err := o.Conn.PresignedGetObject(ctx, bucketName, objectName, o.PresignExpiry, url.Values{})
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to presign %s: %w", objectName, err)
	}

	return UploadResult{
		Bucket:       bucketName,
		Object:       objectName,
		Size:         info.Size,
		PresignedURL: presigned.String(),
	}, nil
}
