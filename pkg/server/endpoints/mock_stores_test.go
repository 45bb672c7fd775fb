package endpoints

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/projectbackend/backend/pkg/model"
)

// MockEntityStore implements store.EntityStore[E] for testing using testify/mock
type MockEntityStore[E any] struct {
	mock.Mock
}

func (m *MockEntityStore[E]) List() ([]E, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]E), args.Error(1)
}

func (m *MockEntityStore[E]) Get(primaryKey int) (*E, error) {
	args := m.Called(primaryKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*E), args.Error(1)
}

func (m *MockEntityStore[E]) GetByNaturalKey(key string) (*E, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*E), args.Error(1)
}

func (m *MockEntityStore[E]) Add(candidate E) (*E, error) {
	args := m.Called(candidate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*E), args.Error(1)
}

func (m *MockEntityStore[E]) Update(entity E) error {
	args := m.Called(entity)
	return args.Error(0)
}

func (m *MockEntityStore[E]) Delete(primaryKey int) error {
	args := m.Called(primaryKey)
	return args.Error(0)
}

// MockSitesStore implements store.SitesStore
type MockSitesStore struct {
	MockEntityStore[model.Site]
}

func NewMockSitesStore() *MockSitesStore {
	return &MockSitesStore{}
}

// MockUsersStore implements store.UsersStore
type MockUsersStore struct {
	MockEntityStore[model.User]
}

func NewMockUsersStore() *MockUsersStore {
	return &MockUsersStore{}
}

func (m *MockUsersStore) Authenticate(email, password string) (*model.User, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockSessionManager implements store.SessionManager
type MockSessionManager struct {
	mock.Mock
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{}
}

func (m *MockSessionManager) Verify(token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}

func (m *MockSessionManager) Lookup(token string) (int, bool) {
	args := m.Called(token)
	return args.Int(0), args.Bool(1)
}

func (m *MockSessionManager) Create(userKey int) (string, time.Time, error) {
	args := m.Called(userKey)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSessionManager) Revoke(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockSessionManager) RevokeUser(userKey int) error {
	args := m.Called(userKey)
	return args.Error(0)
}

// MockHealthStore implements store.HealthStore
type MockHealthStore struct {
	mock.Mock
}

func NewMockHealthStore() *MockHealthStore {
	return &MockHealthStore{}
}

func (m *MockHealthStore) CheckConnectivity() error {
	args := m.Called()
	return args.Error(0)
}
