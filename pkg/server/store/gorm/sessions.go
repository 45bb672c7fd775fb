package gorm

import (
	"errors"
	"time"

	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/session"

	"gorm.io/gorm"
)

// Ensure SessionsStore implements session.Store
var _ session.Store = (*SessionsStore)(nil)

// SessionsStore implements session.Store on the sessions table using GORM
type SessionsStore struct {
	db *gorm.DB
}

// NewSessionsStore creates a new SessionsStore
func NewSessionsStore(db *gorm.DB) *SessionsStore {
	return &SessionsStore{db: db}
}

// Save inserts the session or refreshes the expiry of an existing one.
func (s *SessionsStore) Save(record model.Session) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return s.db.Exec(`
		INSERT INTO sessions (token_hash, user_key, expires_at, absolute_expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (token_hash) DO UPDATE
		SET expires_at = EXCLUDED.expires_at, absolute_expires_at = EXCLUDED.absolute_expires_at
	`, record.TokenHash, record.UserKey, record.ExpiresAt, record.AbsoluteExpiresAt, record.CreatedAt).Error
}

// Get returns the session with the given token hash.
func (s *SessionsStore) Get(tokenHash string) (model.Session, bool, error) {
	var record model.Session
	err := s.db.Where("token_hash = ?", tokenHash).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, err
	}
	return record, true, nil
}

// Delete removes the session with the given token hash.
func (s *SessionsStore) Delete(tokenHash string) error {
	return s.db.Where("token_hash = ?", tokenHash).Delete(&model.Session{}).Error
}

// DeleteUser removes every session of the user.
func (s *SessionsStore) DeleteUser(userKey int) error {
	return s.db.Where("user_key = ?", userKey).Delete(&model.Session{}).Error
}

// PurgeExpired removes every session past its idle or absolute expiry.
func (s *SessionsStore) PurgeExpired(now time.Time) error {
	return s.db.Where("expires_at <= ? OR absolute_expires_at <= ?", now, now).Delete(&model.Session{}).Error
}
