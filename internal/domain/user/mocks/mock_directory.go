package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDirectory is a mock implementation of user.Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Exists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
