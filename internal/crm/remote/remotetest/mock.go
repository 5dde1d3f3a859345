// Package remotetest provides a testify mock of remote.Remote.
package remotetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"crm-gateway/internal/crm/remote"
)

type MockRemote struct {
	mock.Mock
}

var _ remote.Remote = (*MockRemote)(nil)

func (m *MockRemote) FindOne(ctx context.Context, q remote.Query) (remote.Record, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(remote.Record), args.Error(1)
}

func (m *MockRemote) FindMany(ctx context.Context, q remote.Query) ([]remote.Record, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]remote.Record), args.Error(1)
}

func (m *MockRemote) Insert(ctx context.Context, object string, fields remote.Record) (remote.Record, error) {
	args := m.Called(ctx, object, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(remote.Record), args.Error(1)
}

func (m *MockRemote) Update(ctx context.Context, object, id string, fields remote.Record) error {
	args := m.Called(ctx, object, id, fields)
	return args.Error(0)
}

// QueryOn matches any query against object.
func QueryOn(object string) interface{} {
	return mock.MatchedBy(func(q remote.Query) bool { return q.Object == object })
}
