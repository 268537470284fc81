package mocks

import (
	"context"

	"github.com/benmeehan/imgmapon/pkg/identity"
	"github.com/stretchr/testify/mock"
)

// HostInfoInterface is a mock type for the HostInfoInterface type
type HostInfoInterface struct {
	mock.Mock
}

// GetEnvironment provides a mock function with given fields: ctx
func (m *HostInfoInterface) GetEnvironment(ctx context.Context) (*identity.Environment, error) {
	args := m.Called(ctx)
	env, _ := args.Get(0).(*identity.Environment)
	return env, args.Error(1)
}
