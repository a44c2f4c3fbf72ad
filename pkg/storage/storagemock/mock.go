package storagemock

import (
	"context"

	"github.com/raterudder/dayahead/pkg/storage"
	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

var _ storage.Cache = (*MockCache)(nil)

func (m *MockCache) Get(ctx context.Context, key string) (storage.Entry, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(storage.Entry), args.Bool(1), args.Error(2)
}

func (m *MockCache) Put(ctx context.Context, key string, entry storage.Entry) error {
	args := m.Called(ctx, key, entry)
	return args.Error(0)
}

func (m *MockCache) Sweep(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
