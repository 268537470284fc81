package mocks

import (
	"context"
	"io"

	"github.com/benmeehan/imgmapon/pkg/s3"
	"github.com/stretchr/testify/mock"
)

// MockObjectStorage is a mock implementation of the ObjectStorageClient interface
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool) error {
	args := m.Called(ctx, endpoint, accessKeyID, secretAccessKey, useSSL)
	return args.Error(0)
}

func (m *MockObjectStorage) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader, size int64, contentType string) (s3.UploadResult, error) {
	args := m.Called(ctx, bucketName, objectName, content, size, contentType)
	return args.Get(0).(s3.UploadResult), args.Error(1)
}
