package routes

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"NexusPlatform/services/console/internal/domain"
)

// Matcher сопоставляет путь с таблицей маршрутов. Маршруты регистрируются
// в порядке таблицы, побеждает первое совпадение.
type Matcher struct {
	router  *mux.Router
	entries map[*mux.Route]domain.RouteEntry
}

// NewMatcher строит маршрутизатор по таблице
func NewMatcher(table Table) *Matcher {
	m := &Matcher{
		router:  mux.NewRouter(),
		entries: make(map[*mux.Route]domain.RouteEntry, len(table.Routes)),
	}
	for _, entry := range table.Routes {
		route := m.router.NewRoute().Path(muxPattern(entry.Path))
		if route.GetError() != nil {
			continue
		}
		m.entries[route] = entry
	}
	return m
}

// muxPattern переводит ":id" в "{id}"
func muxPattern(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") && len(s) > 1 {
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

// Match находит маршрут для пути (строка запроса игнорируется)
func (m *Matcher) Match(rawPath string) (domain.RouteEntry, map[string]string, bool) {
	u, err := url.Parse(rawPath)
	if err != nil || u.Path == "" {
		return domain.RouteEntry{}, nil, false
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: u.Path}}
	var match mux.RouteMatch
	if !m.router.Match(req, &match) || match.Route == nil {
		return domain.RouteEntry{}, nil, false
	}

	entry, ok := m.entries[match.Route]
	if !ok {
		return domain.RouteEntry{}, nil, false
	}
	return entry, match.Vars, true
}
