package session

import (
	"time"

	"github.com/projectbackend/backend/pkg/model"
)

// Store defines the persistence contract for sessions. Records are keyed by
// token hash.
type Store interface {
	Save(record model.Session) error
	Get(tokenHash string) (model.Session, bool, error)
	Delete(tokenHash string) error
	// DeleteUser removes every session of the user
	DeleteUser(userKey int) error
	PurgeExpired(now time.Time) error
}
