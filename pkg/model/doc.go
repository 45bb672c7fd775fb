// Package model defines the database models for the backend.
//
// Each model maps to one PostgreSQL table created by the migrations under
// db/migrations.
//
// # Entities
//
//   - Site: a named site addressed by its slug
//   - User: an account addressed by its email, holding a bcrypt password hash
//
// Entities carry a system-assigned integer primary key and a caller-assigned
// natural key. Both are unique. Validate normalises an entity in place and
// reports malformed fields with an error wrapping ErrInvalidFields.
//
// # Sessions
//
//   - Session: an issued session token, stored only as the hex sha256 of
//     the token handed to the client
package model
