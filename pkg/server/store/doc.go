// Package store provides storage abstractions for the backend server.
//
// This package defines interfaces for persistence, allowing the server
// endpoints to be decoupled from the specific storage implementation.
// The gorm subpackage backs them with PostgreSQL and the memory subpackage
// keeps everything in process for tests and local development.
//
// # Available Stores
//
//   - EntityStore: generic CRUD over an Entity with a unique natural key
//   - SitesStore: sites addressed by slug
//   - UsersStore: users addressed by email, with password authentication
//   - HealthStore: database connectivity check
//   - SessionManager: session token issuance and verification
//
// # Usage
//
//	sites := gorm.NewSitesStore(db)
//	site, err := sites.GetByNaturalKey("my-site")
//	if err != nil {
//	    if errors.Is(err, store.ErrNotFound) {
//	        // Handle not found
//	    }
//	}
package store
