package gorm

import (
	"context"
	"time"

	"github.com/projectbackend/backend/pkg/server/store"

	"gorm.io/gorm"
)

// Ensure HealthStore implements store.HealthStore
var _ store.HealthStore = (*HealthStore)(nil)

// healthCheckTimeout bounds the connectivity check so /health never hangs
const healthCheckTimeout = 2 * time.Second

// HealthStore provides health check operations using GORM
type HealthStore struct {
	db *gorm.DB
}

// NewHealthStore creates a new HealthStore
func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

// CheckConnectivity runs SELECT 1 against the database
func (s *HealthStore) CheckConnectivity() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}
