package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server"
	"github.com/projectbackend/backend/pkg/server/store"
	"github.com/projectbackend/backend/pkg/server/store/memory"
)

func TestListSites(t *testing.T) {
	t.Run("empty list is an empty array", func(t *testing.T) {
		s := newTestServer(t, server.Deps{})

		w := do(s, "GET", "/sites/", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("lists without a session", func(t *testing.T) {
		sites := memory.NewSitesStore()
		_, err := sites.Add(model.Site{Slug: "a", Name: "A"})
		require.NoError(t, err)
		_, err = sites.Add(model.Site{Slug: "b", Name: "B"})
		require.NoError(t, err)
		s := newTestServer(t, server.Deps{Sites: sites})

		w := do(s, "GET", "/sites/", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"primaryKey":1,"slug":"a","name":"A"},{"primaryKey":2,"slug":"b","name":"B"}]`, w.Body.String())
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		sites := NewMockSitesStore()
		sites.On("List").Return(nil, errors.New("connection refused"))
		s := newTestServer(t, server.Deps{Sites: sites})

		w := do(s, "GET", "/sites/", "", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	})
}

func TestCreateSite(t *testing.T) {
	t.Run("created site can be read back by slug", func(t *testing.T) {
		s := newTestServer(t, server.Deps{})
		token := loggedIn(t, s)

		w := do(s, "POST", "/sites/", token, map[string]string{"slug": "docs", "name": "Docs"})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "/sites/docs", w.Header().Get("Location"))
		created := decodeBody[model.Site](t, w)
		assert.NotZero(t, created.PrimaryKey)
		assert.Equal(t, "docs", created.Slug)
		assert.Equal(t, "Docs", created.Name)

		w = do(s, "GET", "/sites/docs", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, created, decodeBody[model.Site](t, w))

		w = do(s, "GET", fmt.Sprintf("/sites/id/%d", created.PrimaryKey), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, created, decodeBody[model.Site](t, w))
	})

	t.Run("client supplied primary key is ignored", func(t *testing.T) {
		s := newTestServer(t, server.Deps{})
		token := loggedIn(t, s)

		w := do(s, "POST", "/sites/", token, map[string]interface{}{"primaryKey": 99, "slug": "docs", "name": "Docs"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, decodeBody[model.Site](t, w).PrimaryKey)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		s := newTestServer(t, server.Deps{})
		token := loggedIn(t, s)

		first := do(s, "POST", "/sites/", token, map[string]string{"slug": "a", "name": "A"})
		require.Equal(t, http.StatusCreated, first.Code)
		key := decodeBody[model.Site](t, first).PrimaryKey

		second := do(s, "POST", "/sites/", token, map[string]string{"slug": "a", "name": "Another"})
		assert.Equal(t, http.StatusBadRequest, second.Code)
		assert.Contains(t, second.Body.String(), "duplicate")

		all := sitesIn(t, s.SitesStore)
		require.Len(t, all, 1)
		assert.Equal(t, model.Site{PrimaryKey: key, Slug: "a", Name: "A"}, all[0])
	})

	t.Run("invalid fields", func(t *testing.T) {
		tests := []struct {
			name string
			body map[string]string
		}{
			{name: "empty slug", body: map[string]string{"slug": "", "name": "A"}},
			{name: "empty name", body: map[string]string{"slug": "a", "name": "  "}},
			{name: "malformed slug", body: map[string]string{"slug": "Not A Slug", "name": "A"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := newTestServer(t, server.Deps{})
				token := loggedIn(t, s)

				w := do(s, "POST", "/sites/", token, tt.body)

				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), "invalid fields")
				assert.Empty(t, sitesIn(t, s.SitesStore))
			})
		}
	})

	t.Run("undecodable body", func(t *testing.T) {
		s := newTestServer(t, server.Deps{})
		token := loggedIn(t, s)

		w := do(s, "POST", "/sites/", token, "{not json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, sitesIn(t, s.SitesStore))
	})
}

func TestUpdateSite(t *testing.T) {
	setup := func(t *testing.T) (*server.Server, string, model.Site, model.Site) {
		s := newTestServer(t, server.Deps{})
		token := loggedIn(t, s)
		a, err := s.SitesStore.Add(model.Site{Slug: "a", Name: "A"})
		require.NoError(t, err)
		b, err := s.SitesStore.Add(model.Site{Slug: "b", Name: "B"})
		require.NoError(t, err)
		return s, token, *a, *b
	}

	t.Run("rename keeps the primary key", func(t *testing.T) {
		s, token, a, _ := setup(t)

		w := do(s, "PUT", "/sites/", token, model.Site{PrimaryKey: a.PrimaryKey, Slug: "renamed", Name: "Renamed"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "/sites/renamed", w.Header().Get("Location"))

		got, err := s.SitesStore.Get(a.PrimaryKey)
		require.NoError(t, err)
		assert.Equal(t, model.Site{PrimaryKey: a.PrimaryKey, Slug: "renamed", Name: "Renamed"}, *got)

		_, err = s.SitesStore.GetByNaturalKey("a")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("keeping its own slug succeeds", func(t *testing.T) {
		s, token, a, _ := setup(t)

		w := do(s, "PUT", "/sites/", token, model.Site{PrimaryKey: a.PrimaryKey, Slug: "a", Name: "New name"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "/sites/a", w.Header().Get("Location"))
	})

	t.Run("taking another site's slug is a duplicate", func(t *testing.T) {
		s, token, a, b := setup(t)

		w := do(s, "PUT", "/sites/", token, model.Site{PrimaryKey: a.PrimaryKey, Slug: "b", Name: "A"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "duplicate")
		assert.Equal(t, []model.Site{a, b}, sitesIn(t, s.SitesStore))
	})

	t.Run("unknown primary key", func(t *testing.T) {
		s, token, a, b := setup(t)

		w := do(s, "PUT", "/sites/", token, model.Site{PrimaryKey: 404, Slug: "c", Name: "C"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, []model.Site{a, b}, sitesIn(t, s.SitesStore))
	})

	t.Run("invalid fields", func(t *testing.T) {
		s, token, a, b := setup(t)

		w := do(s, "PUT", "/sites/", token, model.Site{PrimaryKey: a.PrimaryKey, Slug: "a", Name: ""})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []model.Site{a, b}, sitesIn(t, s.SitesStore))
	})
}

func TestGetSite(t *testing.T) {
	s := newTestServer(t, server.Deps{})

	t.Run("unknown slug", func(t *testing.T) {
		w := do(s, "GET", "/sites/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := do(s, "GET", "/sites/id/12", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-integer id", func(t *testing.T) {
		w := do(s, "GET", "/sites/id/twelve", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteSite(t *testing.T) {
	t.Run("deleted slug is gone", func(t *testing.T) {
		s := newTestServer(t, server.Deps{})
		token := loggedIn(t, s)
		_, err := s.SitesStore.Add(model.Site{Slug: "a", Name: "A"})
		require.NoError(t, err)

		w := do(s, "DELETE", "/sites/a", token, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		_, err = s.SitesStore.GetByNaturalKey("a")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, do(s, "GET", "/sites/a", "", nil).Code)
	})

	t.Run("missing slug removes nothing", func(t *testing.T) {
		s := newTestServer(t, server.Deps{})
		token := loggedIn(t, s)
		a, err := s.SitesStore.Add(model.Site{Slug: "a", Name: "A"})
		require.NoError(t, err)

		w := do(s, "DELETE", "/sites/missing", token, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, []model.Site{*a}, sitesIn(t, s.SitesStore))
	})
}

func TestMutationsRequireSession(t *testing.T) {
	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{method: "POST", path: "/sites/", body: map[string]string{"slug": "a", "name": "A"}},
		{method: "PUT", path: "/sites/", body: map[string]interface{}{"primaryKey": 1, "slug": "a", "name": "A"}},
		{method: "DELETE", path: "/sites/a"},
		{method: "POST", path: "/users/", body: map[string]string{"email": "a@example.com", "name": "A", "password": "x"}},
		{method: "PUT", path: "/users/", body: map[string]interface{}{"primaryKey": 1, "email": "a@example.com", "name": "A"}},
		{method: "DELETE", path: "/users/a@example.com"},
	}

	for _, token := range []string{"", "not-a-session"} {
		for _, rq := range requests {
			t.Run(fmt.Sprintf("%s %s token=%q", rq.method, rq.path, token), func(t *testing.T) {
				sites := NewMockSitesStore()
				users := NewMockUsersStore()
				sessions := NewMockSessionManager()
				sessions.On("Lookup", token).Return(0, false)
				s := newTestServer(t, server.Deps{Sites: sites, Users: users, Sessions: sessions})

				w := do(s, rq.method, rq.path, token, rq.body)

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.Empty(t, w.Body.String())
				sessions.AssertExpectations(t)
				for _, m := range []*mock.Mock{&sites.Mock, &users.Mock} {
					m.AssertNotCalled(t, "List")
					m.AssertNotCalled(t, "Get", mock.Anything)
					m.AssertNotCalled(t, "GetByNaturalKey", mock.Anything)
					m.AssertNotCalled(t, "Add", mock.Anything)
					m.AssertNotCalled(t, "Update", mock.Anything)
					m.AssertNotCalled(t, "Delete", mock.Anything)
				}
			})
		}
	}
}

func TestUnauthorizedLeavesStorageUnchanged(t *testing.T) {
	s := newTestServer(t, server.Deps{})
	a, err := s.SitesStore.Add(model.Site{Slug: "a", Name: "A"})
	require.NoError(t, err)
	before := sitesIn(t, s.SitesStore)

	assert.Equal(t, http.StatusUnauthorized, do(s, "POST", "/sites/", "bogus", map[string]string{"slug": "b", "name": "B"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, "PUT", "/sites/", "bogus", model.Site{PrimaryKey: a.PrimaryKey, Slug: "z", Name: "Z"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(s, "DELETE", "/sites/a", "bogus", nil).Code)

	assert.Equal(t, before, sitesIn(t, s.SitesStore))
}

func TestDeleteStoreFailure(t *testing.T) {
	sites := NewMockSitesStore()
	sessions := NewMockSessionManager()
	sessions.On("Lookup", "token").Return(1, true)
	sites.On("GetByNaturalKey", "a").Return(&model.Site{PrimaryKey: 3, Slug: "a", Name: "A"}, nil)
	sites.On("Delete", 3).Return(errors.New("disk full"))
	s := newTestServer(t, server.Deps{Sites: sites, Sessions: sessions})

	w := do(s, "DELETE", "/sites/a", "token", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	sites.AssertExpectations(t)
}
