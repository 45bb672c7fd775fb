// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package, plus the sessions table store used by
// pkg/session.
//
// EntityStore is the generic implementation shared by SitesStore and
// UsersStore. It serialises writers per table with pg_advisory_xact_lock, so
// it requires PostgreSQL.
package gorm
