package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL: srv.URL + "/api",
		Tokens:  TokenFunc(func() string { return token }),
	})
	require.NoError(t, err)
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "ftp://nexus"})
	assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))

	_, err = New(Options{BaseURL: ""})
	assert.Error(t, err)
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}, "abc-token")

	require.NoError(t, c.Do(context.Background(), http.MethodPost, "/usuarios/login/", map[string]string{"a": "b"}, nil))

	assert.Equal(t, "/api/usuarios/login/", path)
	assert.Equal(t, "Bearer abc-token", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, defaultUserAgent, got.Get("User-Agent"))
	assert.NotEmpty(t, got.Get(HeaderRequestID))
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	var auth string
	var hasAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}, "")

	var out []interface{}
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "menus/activo/", nil, &out))
	assert.Empty(t, auth)
	assert.False(t, hasAuth)
}

func TestClient_RequestIDFromContext(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(HeaderRequestID)
	}, "")

	ctx := WithRequestID(context.Background(), "req-42")
	require.NoError(t, c.Do(ctx, http.MethodGet, "roles/lista/", nil, nil))
	assert.Equal(t, "req-42", got)
}

func TestClient_DecodesSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count": 7}`))
	}, "t")

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "notificaciones/count-no-leidas/", nil, &out))
	assert.Equal(t, 7, out.Count)
}

func TestClient_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Token inválido."})
	}, "expired")

	var events []UnauthenticatedEvent
	unsubscribe := c.OnUnauthenticated(func(e UnauthenticatedEvent) {
		events = append(events, e)
	})

	err := c.Do(context.Background(), http.MethodGet, "notificaciones/", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnauthorized, errors.CodeOf(err))
	require.Len(t, events, 1)
	assert.Equal(t, http.MethodGet, events[0].Method)
	assert.Equal(t, "notificaciones/", events[0].Path)
	assert.NotEmpty(t, events[0].RequestID)

	unsubscribe()
	_ = c.Do(context.Background(), http.MethodGet, "notificaciones/", nil, nil)
	assert.Len(t, events, 1)
}

func TestClient_ForbiddenDoesNotSignal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Cuenta bloqueada por seguridad."}`))
	}, "t")

	var fired int32
	c.OnUnauthenticated(func(UnauthenticatedEvent) { atomic.AddInt32(&fired, 1) })

	err := c.Do(context.Background(), http.MethodGet, "usuarios/", nil, nil)
	var appErr *errors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
	assert.Equal(t, "Cuenta bloqueada por seguridad.", appErr.Message)
	assert.Zero(t, atomic.LoadInt32(&fired))
}

func TestClient_ValidationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username":["Ya existe un usuario con este nombre."]}`))
	}, "t")

	err := c.Do(context.Background(), http.MethodPost, "usuarios/", map[string]string{"username": "dup"}, nil)
	var appErr *errors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrValidation, appErr.Code)
	assert.Equal(t, []string{"Ya existe un usuario con este nombre."}, appErr.Fields["username"])
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL + "/api/"
	srv.Close()

	c, err := New(Options{BaseURL: base})
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodGet, "roles/lista/", nil, nil)
	assert.Equal(t, errors.ErrNetwork, errors.CodeOf(err))
}

func TestClient_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": "many"`))
	}, "t")

	var out struct {
		Count int `json:"count"`
	}
	err := c.Do(context.Background(), http.MethodGet, "notificaciones/count-no-leidas/", nil, &out)
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(err))
}

func TestClient_CustomInterceptor(t *testing.T) {
	var casino string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		casino = r.Header.Get("X-Casino")
	}, "")

	c.Use(func(req *http.Request) error {
		req.Header.Set("X-Casino", "7")
		return nil
	})

	require.NoError(t, c.Do(context.Background(), http.MethodDelete, "notificaciones/3/", nil, nil))
	assert.Equal(t, "7", casino)
}

func TestClient_Metrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/notificaciones/9/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	m := metrics.NewMetrics("nexus_transport_test", metrics.WithRegistry(prometheus.NewRegistry()))
	c, err := New(Options{BaseURL: srv.URL + "/api/", Metrics: m})
	require.NoError(t, err)

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "notificaciones/", nil, nil))
	require.Error(t, c.Do(context.Background(), http.MethodGet, "notificaciones/9/", nil, nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues("GET", "/api/notificaciones/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsCount.WithLabelValues("GET", "/api/notificaciones/:id/", "client_error")))
}
