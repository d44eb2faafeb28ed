package mocks

import (
	"context"

	"drivedocs/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Create(ctx context.Context, name, content string) (string, error) {
	args := m.Called(ctx, name, content)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Download(ctx context.Context, fileID string) (*model.DownloadResult, error) {
	args := m.Called(ctx, fileID)
	if r := args.Get(0); r != nil {
		return r.(*model.DownloadResult), args.Error(1)
	}
	return nil, args.Error(1)
}
