package model

import "time"

// Session is an issued session token.
// TokenHash is the hex sha256 of the token; the token itself is never stored.
type Session struct {
	TokenHash         string    `gorm:"column:token_hash;primaryKey" json:"tokenHash"`
	UserKey           int       `gorm:"column:user_key;not null" json:"userKey"`
	ExpiresAt         time.Time `gorm:"column:expires_at;not null" json:"expiresAt"`
	AbsoluteExpiresAt time.Time `gorm:"column:absolute_expires_at;not null" json:"absoluteExpiresAt"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Session) TableName() string {
	return "sessions"
}

// IsExpired returns true once either the idle or the absolute expiry has passed
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt) || !now.Before(s.AbsoluteExpiresAt)
}
