package memory

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"
)

func TestAddThenGetByNaturalKey(t *testing.T) {
	sites := NewSitesStore()

	added, err := sites.Add(model.Site{Slug: "a", Name: "A"})
	require.NoError(t, err)
	assert.NotZero(t, added.PrimaryKey)

	got, err := sites.GetByNaturalKey("a")
	require.NoError(t, err)
	assert.Equal(t, model.Site{PrimaryKey: added.PrimaryKey, Slug: "a", Name: "A"}, *got)
}

func TestAddAssignsFreshKeys(t *testing.T) {
	sites := NewSitesStore()

	a, err := sites.Add(model.Site{PrimaryKey: 50, Slug: "a", Name: "A"})
	require.NoError(t, err)
	b, err := sites.Add(model.Site{PrimaryKey: 50, Slug: "b", Name: "B"})
	require.NoError(t, err)

	assert.NotEqual(t, a.PrimaryKey, b.PrimaryKey)
}

func TestAddDuplicateLeavesStorageUnchanged(t *testing.T) {
	sites := NewSitesStore()

	_, err := sites.Add(model.Site{Slug: "a", Name: "A"})
	require.NoError(t, err)

	_, err = sites.Add(model.Site{Slug: "a", Name: "Other"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	all, err := sites.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "A", all[0].Name)
}

func TestAddInvalidPersistsNothing(t *testing.T) {
	sites := NewSitesStore()

	for _, site := range []model.Site{{Slug: "", Name: "A"}, {Slug: "a", Name: ""}, {Slug: "A B", Name: "x"}} {
		_, err := sites.Add(site)
		assert.ErrorIs(t, err, store.ErrInvalidFields)
	}

	all, err := sites.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate(t *testing.T) {
	sites := NewSitesStore()
	a, err := sites.Add(model.Site{Slug: "a", Name: "A"})
	require.NoError(t, err)
	b, err := sites.Add(model.Site{Slug: "b", Name: "B"})
	require.NoError(t, err)

	t.Run("unknown primary key", func(t *testing.T) {
		err := sites.Update(model.Site{PrimaryKey: 999, Slug: "z", Name: "Z"})
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = sites.GetByNaturalKey("z")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("natural key of another entity", func(t *testing.T) {
		err := sites.Update(model.Site{PrimaryKey: b.PrimaryKey, Slug: "a", Name: "B"})
		assert.ErrorIs(t, err, store.ErrDuplicateKey)

		got, err := sites.Get(b.PrimaryKey)
		require.NoError(t, err)
		assert.Equal(t, "b", got.Slug)
	})

	t.Run("own natural key", func(t *testing.T) {
		err := sites.Update(model.Site{PrimaryKey: a.PrimaryKey, Slug: "a", Name: "Renamed"})
		require.NoError(t, err)

		got, err := sites.Get(a.PrimaryKey)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
	})

	t.Run("new natural key", func(t *testing.T) {
		err := sites.Update(model.Site{PrimaryKey: a.PrimaryKey, Slug: "c", Name: "C"})
		require.NoError(t, err)

		_, err = sites.GetByNaturalKey("a")
		assert.ErrorIs(t, err, store.ErrNotFound)
		got, err := sites.GetByNaturalKey("c")
		require.NoError(t, err)
		assert.Equal(t, a.PrimaryKey, got.PrimaryKey)
	})
}

func TestDelete(t *testing.T) {
	sites := NewSitesStore()
	a, err := sites.Add(model.Site{Slug: "a", Name: "A"})
	require.NoError(t, err)

	require.NoError(t, sites.Delete(a.PrimaryKey))
	_, err = sites.GetByNaturalKey("a")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, sites.Delete(a.PrimaryKey), store.ErrNotFound)
}

func TestListOrderedByPrimaryKey(t *testing.T) {
	sites := NewSitesStore()
	for i := 0; i < 10; i++ {
		_, err := sites.Add(model.Site{Slug: fmt.Sprintf("s%d", i), Name: "S"})
		require.NoError(t, err)
	}

	all, err := sites.List()
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].PrimaryKey, all[i].PrimaryKey)
	}
}

func TestConcurrentAddSameNaturalKey(t *testing.T) {
	sites := NewSitesStore()

	var wg sync.WaitGroup
	var succeeded, duplicates atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sites.Add(model.Site{Slug: "race", Name: "R"})
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, store.ErrDuplicateKey):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(49), duplicates.Load())
}
