package store

import "github.com/projectbackend/backend/pkg/model"

// SitesStore abstracts site storage operations. Sites are addressed by slug.
type SitesStore interface {
	EntityStore[model.Site]
}
