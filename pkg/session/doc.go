// Package session issues and verifies opaque session tokens.
//
// A token is 32 random bytes, hex encoded, handed to the client once at
// login. Stores only ever see the hex sha256 of the token.
//
// Sessions expire at an absolute deadline fixed at creation. With an idle
// timeout configured, every successful verification slides the idle expiry
// forward, capped at the absolute deadline.
//
// # Stores
//
//   - gorm: the sessions table (see pkg/server/store/gorm)
//   - RedisStore: one key per session with a TTL
//   - MemoryStore: process local, for tests and development
package session
