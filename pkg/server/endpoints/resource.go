package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/projectbackend/backend/pkg/audit"
	"github.com/projectbackend/backend/pkg/metrics"
	"github.com/projectbackend/backend/pkg/server"
	"github.com/projectbackend/backend/pkg/server/middleware"
	"github.com/projectbackend/backend/pkg/server/store"
)

// resource serves the CRUD routes of one entity type under basePath.
// Mutating routes sit behind the session middleware, so no store call is
// made for a request without a live session.
type resource[E any, P store.EntityPtr[E]] struct {
	entity   string
	basePath string
	store    store.EntityStore[E]
	metrics  *metrics.Metrics
	clientIP func(*http.Request) string

	// afterDelete runs once the entity is gone. Its failure is logged and
	// does not change the response.
	afterDelete func(deleted P) error
}

func registerResource[E any, P store.EntityPtr[E]](s *server.Server, entity, basePath string, entities store.EntityStore[E]) *resource[E, P] {
	res := &resource[E, P]{
		entity:   entity,
		basePath: basePath,
		store:    entities,
		metrics:  s.Metrics,
		clientIP: s.ClientIP,
	}
	auth := middleware.NewSessionAuthenticator(s.Sessions)

	r := s.Router
	r.HandleFunc(basePath, res.list).Methods("GET")
	r.Handle(basePath, auth.Middleware(http.HandlerFunc(res.create))).Methods("POST")
	r.Handle(basePath, auth.Middleware(http.HandlerFunc(res.update))).Methods("PUT")
	r.HandleFunc(basePath+"id/{id}", res.getByPrimaryKey).Methods("GET")
	r.HandleFunc(basePath+"{key}", res.getByNaturalKey).Methods("GET")
	r.Handle(basePath+"{key}", auth.Middleware(http.HandlerFunc(res.delete))).Methods("DELETE")
	return res
}

func (res *resource[E, P]) list(w http.ResponseWriter, r *http.Request) {
	entities, err := res.store.List()
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	if entities == nil {
		entities = []E{}
	}
	respondWithJSON(w, http.StatusOK, entities)
}

func (res *resource[E, P]) getByPrimaryKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s id", res.entity))
		return
	}

	entity, err := res.store.Get(id)
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entity)
}

func (res *resource[E, P]) getByNaturalKey(w http.ResponseWriter, r *http.Request) {
	key, ok := res.naturalKey(w, r)
	if !ok {
		return
	}

	entity, err := res.store.GetByNaturalKey(key)
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entity)
}

func (res *resource[E, P]) create(w http.ResponseWriter, r *http.Request) {
	var candidate E
	if err := decodeJSON(r, &candidate); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	created, err := res.store.Add(candidate)
	if err != nil {
		res.record(r, audit.OperationCreate, P(&candidate).NaturalKeyValue(), err)
		respondWithStoreError(w, r, err)
		return
	}

	key := P(created).NaturalKeyValue()
	res.record(r, audit.OperationCreate, key, nil)
	w.Header().Set("Location", res.location(key))
	respondWithJSON(w, http.StatusCreated, created)
}

func (res *resource[E, P]) update(w http.ResponseWriter, r *http.Request) {
	var entity E
	if err := decodeJSON(r, &entity); err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	// The store validates again; this copy only yields the canonical key.
	normalized := entity
	_ = P(&normalized).Validate()
	key := P(&normalized).NaturalKeyValue()

	err := res.store.Update(entity)
	res.record(r, audit.OperationUpdate, key, err)
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}

	w.Header().Set("Location", res.location(key))
	w.WriteHeader(http.StatusNoContent)
}

// delete resolves the natural key first, so a missing key is a 404 and
// nothing is removed
func (res *resource[E, P]) delete(w http.ResponseWriter, r *http.Request) {
	key, ok := res.naturalKey(w, r)
	if !ok {
		return
	}

	entity, err := res.store.GetByNaturalKey(key)
	if err == nil {
		err = res.store.Delete(P(entity).PrimaryKeyValue())
	}
	res.record(r, audit.OperationDelete, key, err)
	if err != nil {
		respondWithStoreError(w, r, err)
		return
	}
	if res.afterDelete != nil {
		if err := res.afterDelete(P(entity)); err != nil {
			log.Error().Err(err).Str("entity", res.entity).Str("key", key).Msg("Post-delete cleanup failed")
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (res *resource[E, P]) naturalKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(mux.Vars(r)["key"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s key", res.entity))
		return "", false
	}
	return key, true
}

func (res *resource[E, P]) location(naturalKey string) string {
	return res.basePath + url.PathEscape(naturalKey)
}

func (res *resource[E, P]) record(r *http.Request, op audit.Operation, key string, err error) {
	res.metrics.ObserveEntityOperation(res.entity, op.String(), resultLabel(err))

	userKey, _ := middleware.UserKey(r.Context())
	event := audit.EntityEvent{
		UserKey:   userKey,
		ClientIP:  res.clientIP(r),
		Entity:    res.entity,
		Key:       key,
		Operation: op,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	audit.Log(event)
}
