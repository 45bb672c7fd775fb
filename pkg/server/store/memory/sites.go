package memory

import (
	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"
)

var _ store.SitesStore = (*SitesStore)(nil)

// SitesStore implements store.SitesStore in memory
type SitesStore struct {
	*EntityStore[model.Site, *model.Site]
}

// NewSitesStore creates an empty SitesStore
func NewSitesStore() *SitesStore {
	return &SitesStore{NewEntityStore[model.Site]("site")}
}
