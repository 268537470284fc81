package mocks

import (
	"github.com/benmeehan/imgmapon/pkg/imagemeta"
	"github.com/stretchr/testify/mock"
)

// MockExtractor is a mock implementation of the ExtractorInterface interface
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(path string) (*imagemeta.Result, error) {
	args := m.Called(path)
	res, _ := args.Get(0).(*imagemeta.Result)
	return res, args.Error(1)
}
