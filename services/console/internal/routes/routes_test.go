package routes

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NexusPlatform/services/console/internal/domain"
)

func staticRegistry(paths ...string) *Registry {
	r := NewRegistry()
	for _, p := range paths {
		view := View{Path: p}
		r.Register(p, func() (domain.Component, error) { return view, nil })
	}
	return r
}

func paths(entries []domain.RouteEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestBuildRoutes_FirstMatchWins(t *testing.T) {
	var menu []domain.MenuNode
	require.NoError(t, json.Unmarshal([]byte(`[
		{"to": "/a", "componentPath": "X"},
		{"to": "/a", "componentPath": "Y"}
	]`), &menu))

	table := BuildRoutes(menu, staticRegistry("X", "Y"), nil)
	require.Len(t, table.Routes, 2)
	assert.Equal(t, "X", table.Routes[0].ComponentPath)
	assert.Equal(t, "Y", table.Routes[1].ComponentPath)

	entry, _, ok := NewMatcher(table).Match("/a")
	require.True(t, ok)
	assert.Equal(t, "X", entry.ComponentPath)

	view, err := entry.Loader()
	require.NoError(t, err)
	assert.Equal(t, "X", view.Name())
}

func TestBuildRoutes_PreOrder(t *testing.T) {
	menu := []domain.MenuNode{
		{Kind: domain.MenuPage, Path: "/p", ComponentPath: "P", Children: []domain.MenuNode{
			{Kind: domain.MenuPage, Path: "/p/c1", ComponentPath: "C1"},
			{Kind: domain.MenuGroup, Title: "g", Children: []domain.MenuNode{
				{Kind: domain.MenuPage, Path: "/p/g/x", ComponentPath: "GX"},
			}},
			{Kind: domain.MenuPage, Path: "/p/c2", ComponentPath: "C2"},
		}},
		{Kind: domain.MenuPage, Path: "/q", ComponentPath: "Q"},
	}

	table := BuildRoutes(menu, staticRegistry("P", "C1", "GX", "C2", "Q"), nil)
	assert.Equal(t, []string{"/p", "/p/c1", "/p/g/x", "/p/c2", "/q"}, paths(table.Routes))
	assert.Empty(t, table.Unresolved)
}

func TestBuildRoutes_UnresolvedSkippedChildrenVisited(t *testing.T) {
	menu := []domain.MenuNode{
		{Kind: domain.MenuPage, Path: "/missing", ComponentPath: "Nope", Title: "Falta", Children: []domain.MenuNode{
			{Kind: domain.MenuPage, Path: "/missing/child", ComponentPath: "Child"},
		}},
		{Kind: domain.MenuPage, Path: "/ok", ComponentPath: "Ok"},
	}

	table := BuildRoutes(menu, staticRegistry("Child", "Ok"), nil)
	assert.Equal(t, []string{"/missing/child", "/ok"}, paths(table.Routes))
	require.Len(t, table.Unresolved, 1)
	assert.Equal(t, domain.UnresolvedRoute{Path: "/missing", ComponentPath: "Nope", Reason: "componente no encontrado"}, table.Unresolved[0])
}

func findRoute(table Table, pattern string) (domain.RouteEntry, bool) {
	for _, r := range table.Routes {
		if r.Path == pattern {
			return r, true
		}
	}
	return domain.RouteEntry{}, false
}

func TestBuildRoutes_Meta(t *testing.T) {
	table := BuildRoutes(WithSystem(DefaultMenu()), DefaultRegistry(), nil)

	roles, ok := findRoute(table, "/admin/roles")
	require.True(t, ok)
	assert.True(t, roles.Meta.RequiresAuth)
	assert.False(t, roles.Meta.Public)
	assert.Equal(t, domain.RoleSet{domain.RoleAdministrador}, roles.Meta.Roles)
	assert.Equal(t, "Gestión de Roles", roles.Meta.Title)

	login, ok := findRoute(table, PathLogin)
	require.True(t, ok)
	assert.Equal(t, "login", login.Name)
	assert.True(t, login.Meta.Public)
	assert.False(t, login.Meta.RequiresAuth)

	eula, ok := findRoute(table, PathEULA)
	require.True(t, ok)
	assert.True(t, eula.Meta.AllowAuthenticated)
}

func TestDefaultMenu_FullyResolved(t *testing.T) {
	table := BuildRoutes(WithSystem(DefaultMenu()), DefaultRegistry(), nil)
	assert.Empty(t, table.Unresolved)
	assert.Len(t, table.Routes, 30)
	assert.Equal(t, "/", table.Routes[0].Path)

	_, diags := ValidateMenu(WithSystem(DefaultMenu()))
	assert.Empty(t, diags)
}

func TestDefaultMenu_ReturnsCopy(t *testing.T) {
	a := DefaultMenu()
	a[0].Children[0].Title = "cambiado"
	assert.Equal(t, "Escritorio", DefaultMenu()[0].Children[0].Title)
}

func TestRegistry_LoadsOnce(t *testing.T) {
	calls := 0
	r := NewRegistry()
	r.Register("views/Dashboard.vue", func() (domain.Component, error) {
		calls++
		return View{Path: "views/Dashboard.vue"}, nil
	})

	loader, ok := r.Resolve("views/Dashboard.vue")
	require.True(t, ok)
	assert.Zero(t, calls, "resolving must not load")

	for i := 0; i < 3; i++ {
		_, err := loader()
		require.NoError(t, err)
	}
	again, _ := r.Resolve("views/Dashboard.vue")
	_, _ = again()
	assert.Equal(t, 1, calls)

	_, ok = r.Resolve("views/Unknown.vue")
	assert.False(t, ok)
}

func TestRegistry_LoaderError(t *testing.T) {
	r := NewRegistry()
	r.Register("broken", func() (domain.Component, error) { return nil, fmt.Errorf("chunk load failed") })
	r.Register("empty", func() (domain.Component, error) { return nil, nil })

	loader, _ := r.Resolve("broken")
	_, err := loader()
	assert.EqualError(t, err, "chunk load failed")

	loader, _ = r.Resolve("empty")
	_, err = loader()
	assert.Error(t, err)

	assert.Equal(t, []string{"broken", "empty"}, r.Components())
}

func TestMatcher(t *testing.T) {
	table := BuildRoutes(WithSystem(DefaultMenu()), DefaultRegistry(), nil)
	m := NewMatcher(table)

	entry, params, ok := m.Match("/notificaciones/42")
	require.True(t, ok)
	assert.Equal(t, "/notificaciones/:id", entry.Path)
	assert.Equal(t, map[string]string{"id": "42"}, params)

	entry, _, ok = m.Match("/admin/roles?tab=2")
	require.True(t, ok)
	assert.Equal(t, "/admin/roles", entry.Path)

	entry, _, ok = m.Match("/")
	require.True(t, ok)
	assert.Equal(t, "views/Dashboard.vue", entry.ComponentPath)

	_, _, ok = m.Match("/no/existe")
	assert.False(t, ok)

	_, _, ok = m.Match("")
	assert.False(t, ok)
}

func TestMuxPattern(t *testing.T) {
	assert.Equal(t, "/notificaciones/{id}", muxPattern("/notificaciones/:id"))
	assert.Equal(t, "/a/{x}/b/{y}", muxPattern("/a/:x/b/:y"))
	assert.Equal(t, "/", muxPattern("/"))
}

func TestValidateMenu(t *testing.T) {
	menu := []domain.MenuNode{
		{Kind: domain.MenuPage, Path: "sin-barra", ComponentPath: "A"},
		{Kind: domain.MenuPage, Path: "/sin-componente"},
		{Kind: "widget", Path: "/w", ComponentPath: "W", Children: []domain.MenuNode{
			{Path: "/w/child", ComponentPath: "WC", Roles: []string{" TECNICO ", "", "TECNICO"}},
		}},
		{Kind: domain.MenuGroup, Title: "Vacío"},
		{Kind: domain.MenuGroup, Title: "Con componente", ComponentPath: "G", Children: []domain.MenuNode{
			{Path: "/g", ComponentPath: "GP"},
		}},
		{Path: "/ok", ComponentPath: "OK"},
	}

	cleaned, diags := ValidateMenu(menu)
	assert.Len(t, diags, 5)
	assert.Equal(t, []string{"/w/child", "/g", "/ok"}, PagePaths(cleaned))

	require.Len(t, cleaned, 3)
	assert.Equal(t, domain.MenuGroup, cleaned[0].Kind)
	assert.Equal(t, []string{"TECNICO"}, cleaned[0].Children[0].Roles)
	assert.Equal(t, domain.MenuPage, cleaned[0].Children[0].Kind)
	assert.Empty(t, cleaned[1].ComponentPath)
	assert.Equal(t, domain.MenuPage, cleaned[2].Kind)
}

func TestParseMenu(t *testing.T) {
	yamlMenu := `
- kind: group
  title: Centro de Servicios
  children:
    - path: /centro-servicios/tickets
      component: views/CentroServicios/Tickets.vue
      title: Tickets
      roles: [TECNICO]
`
	menu, err := ParseMenu([]byte(yamlMenu))
	require.NoError(t, err)
	cleaned, diags := ValidateMenu(menu)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"/centro-servicios/tickets"}, PagePaths(cleaned))

	menu, err = ParseMenu([]byte(`{"menu":[{"to":"/x","componentRef":"X"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "/x", menu[0].Path)
	assert.Equal(t, domain.MenuPage, menu[0].Kind)

	_, err = ParseMenu([]byte("  "))
	assert.Error(t, err)
	_, err = ParseMenu([]byte(`[{"to": }]`))
	assert.Error(t, err)
}
