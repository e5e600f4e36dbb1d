package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/storage"
	"NexusPlatform/services/console/internal/transport"
)

// countingStorage считает вызовы Delete
type countingStorage struct {
	storage.Storage
	deletes [][]string
}

func (c *countingStorage) Delete(ctx context.Context, keys ...string) error {
	c.deletes = append(c.deletes, keys)
	return c.Storage.Delete(ctx, keys...)
}

func testUser() *domain.UserProfile {
	return &domain.UserProfile{ID: 12, Username: "robertcyby", RolNombre: domain.RoleTecnico, CasinoID: 3}
}

func TestStore_SetLoginPersistsAndLoads(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	store := NewStore(mem, nil)

	require.NoError(t, store.SetLogin(ctx, "tok", "ref", testUser()))
	assert.True(t, store.IsAuthenticated())

	token, ok, err := mem.Get(ctx, domain.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", token)

	reloaded := NewStore(mem, nil)
	require.NoError(t, reloaded.Load(ctx))
	sess := reloaded.Session()
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "ref", sess.RefreshToken)
	assert.Equal(t, "robertcyby", sess.User.Username)
	assert.Equal(t, domain.RoleTecnico, sess.User.RolNombre)
}

func TestStore_SetLoginRejectsIncomplete(t *testing.T) {
	store := NewStore(storage.NewMemoryStorage(), nil)
	assert.Error(t, store.SetLogin(context.Background(), "", "ref", testUser()))
	assert.Error(t, store.SetLogin(context.Background(), "tok", "ref", nil))
	assert.False(t, store.IsAuthenticated())
}

func TestStore_SetLoginWithoutRefreshDropsStoredRefresh(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	store := NewStore(mem, nil)

	require.NoError(t, store.SetLogin(ctx, "tok-1", "ref-1", testUser()))
	require.NoError(t, store.SetLogin(ctx, "tok-2", "", testUser()))
	assert.Empty(t, store.Session().RefreshToken)

	_, ok, err := mem.Get(ctx, domain.KeyRefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded := NewStore(mem, nil)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, "tok-2", reloaded.Session().Token)
	assert.Empty(t, reloaded.Session().RefreshToken)
}

func TestStore_LoadCorruptUser(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, domain.KeyToken, "tok"))
	require.NoError(t, mem.Set(ctx, domain.KeyUser, "{not json"))

	store := NewStore(mem, nil)
	require.NoError(t, store.Load(ctx))
	assert.Equal(t, "tok", store.Token())
	assert.Nil(t, store.User())
	assert.False(t, store.IsAuthenticated())
}

func TestStore_ClearRemovesAllKeysAtOnce(t *testing.T) {
	ctx := context.Background()
	mem := &countingStorage{Storage: storage.NewMemoryStorage()}
	store := NewStore(mem, nil)

	require.NoError(t, store.SetLogin(ctx, "tok", "ref", testUser()))
	require.NoError(t, store.SetRoles(ctx, []domain.Role{{ID: 1, Nombre: domain.RoleAdministrador}}))
	require.NoError(t, mem.Set(ctx, domain.KeyMenuConfig, "[]"))

	require.NoError(t, store.Clear(ctx))

	require.Len(t, mem.deletes, 1)
	assert.ElementsMatch(t, domain.SessionKeys, mem.deletes[0])
	for _, key := range domain.SessionKeys {
		_, ok, err := mem.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	_, ok, _ := mem.Get(ctx, domain.KeyMenuConfig)
	assert.True(t, ok, "menu override survives logout")

	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Roles())
}

func TestStore_EventsAfterPersist(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	store := NewStore(mem, nil)

	var seen []EventType
	var persistedAtEvent string
	unsubscribe := store.Subscribe(func(e Event) {
		seen = append(seen, e.Type)
		if e.Type == EventLogin {
			persistedAtEvent, _, _ = mem.Get(ctx, domain.KeyToken)
		}
	})

	require.NoError(t, store.SetLogin(ctx, "tok", "ref", testUser()))
	require.NoError(t, store.UpdateTokens(ctx, "tok2", ""))
	require.NoError(t, store.MarkEULAAccepted(ctx))
	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, "tok", persistedAtEvent)
	assert.Equal(t, []EventType{EventLogin, EventRefreshed, EventEULAAccepted, EventLogout}, seen)

	unsubscribe()
	require.NoError(t, store.SetLogin(ctx, "tok", "ref", testUser()))
	assert.Len(t, seen, 4)
}

func TestStore_UpdateTokensKeepsRefreshWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStorage(), nil)
	require.NoError(t, store.SetLogin(ctx, "tok", "ref", testUser()))

	require.NoError(t, store.UpdateTokens(ctx, "tok2", ""))
	assert.Equal(t, "tok2", store.Token())
	assert.Equal(t, "ref", store.RefreshToken())
}

func TestStore_MarkEULAAcceptedInPlace(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	store := NewStore(mem, nil)

	assert.Error(t, store.MarkEULAAccepted(ctx))

	require.NoError(t, store.SetLogin(ctx, "tok", "ref", testUser()))
	assert.False(t, store.User().EULAAccepted)

	require.NoError(t, store.MarkEULAAccepted(ctx))
	assert.True(t, store.User().EULAAccepted)

	var persisted domain.UserProfile
	ok, err := storage.GetJSON(ctx, mem, domain.KeyUser, &persisted)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, persisted.EULAAccepted)
}

func TestStore_UserIsACopy(t *testing.T) {
	store := NewStore(storage.NewMemoryStorage(), nil)
	require.NoError(t, store.SetLogin(context.Background(), "tok", "ref", testUser()))

	u := store.User()
	u.RolNombre = domain.RoleAdministrador
	assert.Equal(t, domain.RoleTecnico, store.User().RolNombre)
}

func TestStore_InvalidatedByUnauthorizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Token inválido."}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	store := NewStore(storage.NewMemoryStorage(), nil)
	require.NoError(t, store.SetLogin(ctx, "tok", "ref", testUser()))

	client, err := transport.New(transport.Options{BaseURL: srv.URL + "/api/", Tokens: store})
	require.NoError(t, err)
	store.Bind(client)

	var events []EventType
	store.Subscribe(func(e Event) { events = append(events, e.Type) })

	err = client.Do(ctx, http.MethodGet, "notificaciones/", nil, nil)
	require.Error(t, err)

	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, []EventType{EventInvalidated}, events)

	// Повторный 401 без сессии не рассылает событие
	_ = client.Do(ctx, http.MethodGet, "notificaciones/", nil, nil)
	assert.Len(t, events, 1)
}
