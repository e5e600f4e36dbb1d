package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/transport"
)

// fakeBackend имитирует API уведомлений: leido вычисляется по квитанциям
// пользователя, заданного заголовком Authorization ("Bearer user-<id>").
type fakeBackend struct {
	mu            sync.Mutex
	notifications []domain.Notification
	receipts      map[[2]int64]time.Time
	failMark      map[int64]bool
	nextID        int64
	countCalls    int
	markCalls     int
}

func newFakeBackend(items ...domain.Notification) *fakeBackend {
	b := &fakeBackend{
		receipts: make(map[[2]int64]time.Time),
		failMark: make(map[int64]bool),
		nextID:   100,
	}
	b.notifications = append(b.notifications, items...)
	return b
}

func userFrom(r *http.Request) int64 {
	id, _ := strconv.ParseInt(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer user-"), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) view(n domain.Notification, user int64) domain.Notification {
	_, n.Leido = b.receipts[[2]int64{n.ID, user}]
	return n
}

func (b *fakeBackend) find(id int64) (domain.Notification, bool) {
	for _, n := range b.notifications {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Notification{}, false
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	user := userFrom(r)
	if user == 0 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token inválido."})
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "notificaciones/count-no-leidas" && r.Method == http.MethodGet:
		b.countCalls++
		count := 0
		for _, n := range b.notifications {
			if !b.view(n, user).Leido {
				count++
			}
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": count})

	case path == "notificaciones" && r.Method == http.MethodGet:
		out := make([]domain.Notification, 0, len(b.notifications))
		for _, n := range b.notifications {
			out = append(out, b.view(n, user))
		}
		writeJSON(w, http.StatusOK, out)

	case path == "notificaciones" && r.Method == http.MethodPost:
		var in map[string]interface{}
		json.NewDecoder(r.Body).Decode(&in)
		if _, sent := in["leido"]; sent {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"leido": {"campo de solo lectura"}})
			return
		}
		b.nextID++
		n := domain.Notification{ID: b.nextID, EstaActivo: true, CreadoEn: time.Now()}
		n.Titulo, _ = in["titulo"].(string)
		n.Contenido, _ = in["contenido"].(string)
		if nivel, ok := in["nivel"].(string); ok {
			n.Nivel = domain.Nivel(nivel)
		}
		n.EsGlobal, _ = in["es_global"].(bool)
		b.notifications = append(b.notifications, n)
		writeJSON(w, http.StatusCreated, b.view(n, user))

	case len(parts) == 3 && parts[0] == "notificaciones" && parts[2] == "marcar-leida" && r.Method == http.MethodPatch:
		b.markCalls++
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		if b.failMark[id] {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "fallo"})
			return
		}
		if _, ok := b.find(id); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Notificación no encontrada"})
			return
		}
		key := [2]int64{id, user}
		seen, exists := b.receipts[key]
		if !exists {
			seen = time.Now()
			b.receipts[key] = seen
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok", "leido": true, "created": !exists, "fecha_visto": seen,
		})

	case len(parts) == 2 && parts[0] == "notificaciones" && r.Method == http.MethodGet:
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		n, ok := b.find(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No encontrado."})
			return
		}
		writeJSON(w, http.StatusOK, b.view(n, user))

	case len(parts) == 2 && parts[0] == "notificaciones" && r.Method == http.MethodPatch:
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		for i := range b.notifications {
			if b.notifications[i].ID == id {
				var in map[string]interface{}
				json.NewDecoder(r.Body).Decode(&in)
				if t, ok := in["titulo"].(string); ok {
					b.notifications[i].Titulo = t
				}
				writeJSON(w, http.StatusOK, b.view(b.notifications[i], user))
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No encontrado."})

	case len(parts) == 2 && parts[0] == "notificaciones" && r.Method == http.MethodDelete:
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		kept := b.notifications[:0]
		for _, n := range b.notifications {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		b.notifications = kept
		for key := range b.receipts {
			if key[0] == id {
				delete(b.receipts, key)
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case path == "notificaciones-usuarios" && r.Method == http.MethodPost:
		var in struct {
			Notificacion int64 `json:"notificacion"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		if _, ok := b.find(in.Notificacion); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Notificación no encontrada"})
			return
		}
		key := [2]int64{in.Notificacion, user}
		seen, exists := b.receipts[key]
		if !exists {
			seen = time.Now()
			b.receipts[key] = seen
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "created": !exists,
			"data": domain.ReadReceipt{ID: in.Notificacion*1000 + user, Notificacion: in.Notificacion, Usuario: user, FechaVisto: seen},
		})

	case path == "notificaciones-usuarios" && r.Method == http.MethodGet:
		out := []domain.ReadReceipt{}
		for key, seen := range b.receipts {
			if key[1] == user {
				out = append(out, domain.ReadReceipt{ID: key[0]*1000 + user, Notificacion: key[0], Usuario: user, FechaVisto: seen})
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(out), "results": out})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No encontrado."})
	}
}

func (b *fakeBackend) counts() (count, mark int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.countCalls, b.markCalls
}

// newClientFor создает клиента уведомлений от имени пользователя
func newClientFor(t *testing.T, backend *fakeBackend, user int64) *Client {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	api, err := transport.New(transport.Options{
		BaseURL: srv.URL + "/api/",
		Tokens:  transport.TokenFunc(func() string { return "user-" + strconv.FormatInt(user, 10) }),
	})
	require.NoError(t, err)
	return NewClient(api, nil)
}

func sampleNotifications() []domain.Notification {
	now := time.Now()
	return []domain.Notification{
		{ID: 1, Titulo: "Mantenimiento", Nivel: domain.NivelInformativa, EsGlobal: true, CreadoEn: now.Add(-time.Hour)},
		{ID: 2, Titulo: "Falla de red", Nivel: domain.NivelUrgente, EsGlobal: true, CreadoEn: now.Add(-2 * time.Hour)},
		{ID: 3, Titulo: "Ticket asignado", Nivel: domain.NivelAlerta, CreadoEn: now},
	}
}
