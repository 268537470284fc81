package mocks

import (
	"context"

	"github.com/benmeehan/imgmapon/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockReverseGeocoder is a mock implementation of location.ReverseGeocoder
type MockReverseGeocoder struct {
	mock.Mock
	ProviderName string
}

func (m *MockReverseGeocoder) Name() string {
	return m.ProviderName
}

func (m *MockReverseGeocoder) Call(ctx context.Context, p location.GeoPoint) (location.LocationResult, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(location.LocationResult), args.Error(1)
}

// MockIPGeolocator is a mock implementation of location.IPGeolocator
type MockIPGeolocator struct {
	mock.Mock
	ProviderName string
}

func (m *MockIPGeolocator) Name() string {
	return m.ProviderName
}

func (m *MockIPGeolocator) Call(ctx context.Context, ip string) (location.IPLocationResult, error) {
	args := m.Called(ctx, ip)
	return args.Get(0).(location.IPLocationResult), args.Error(1)
}

// MockIPLookup is a mock implementation of the host IP lookup
type MockIPLookup struct {
	mock.Mock
}

func (m *MockIPLookup) HostIP(ctx context.Context, rawURL string) (string, error) {
	args := m.Called(ctx, rawURL)
	return args.String(0), args.Error(1)
}

func (m *MockIPLookup) PublicIP(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockDownloader is a mock implementation of the image downloader
type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Download(ctx context.Context, rawURL, outputPath string) (string, error) {
	args := m.Called(ctx, rawURL, outputPath)
	return args.String(0), args.Error(1)
}
