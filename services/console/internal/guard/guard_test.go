package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/routes"
)

type fixedSession struct {
	session domain.Session
}

func (f fixedSession) Session() domain.Session { return f.session }

func anonymous() fixedSession { return fixedSession{} }

func loggedIn(role string, eula bool) fixedSession {
	return fixedSession{session: domain.Session{
		Token: "tok",
		User:  &domain.UserProfile{ID: 1, Username: "ana", RolNombre: role, EULAAccepted: eula},
	}}
}

func newGuard(t *testing.T, sessions SessionSource, titles TitleSink) *Guard {
	t.Helper()
	table := routes.BuildRoutes(routes.WithSystem(routes.DefaultMenu()), routes.DefaultRegistry(), nil)
	require.Empty(t, table.Unresolved)
	return New(routes.NewMatcher(table), sessions, titles, nil)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		session    fixedSession
		path       string
		wantAction Action
		wantTarget string
		wantReason string
	}{
		{"public login anonymous", anonymous(), "/auth/login", ActionAllow, "", ""},
		{"login while authenticated", loggedIn(domain.RoleTecnico, true), "/auth/login", ActionRedirect, "/", ReasonAlreadyLoggedIn},
		{"public eula while authenticated", loggedIn(domain.RoleTecnico, false), "/lisencia?redirect=%2F", ActionAllow, "", ""},
		{"protected anonymous", anonymous(), "/admin/roles", ActionRedirect, "/auth/login?redirect=%2Fadmin%2Froles", ReasonUnauthenticated},
		{"protected keeps query", anonymous(), "/notificaciones/5?from=bell", ActionRedirect, "/auth/login?redirect=%2Fnotificaciones%2F5%3Ffrom%3Dbell", ReasonUnauthenticated},
		{"token without user", fixedSession{session: domain.Session{Token: "tok"}}, "/", ActionRedirect, "/auth/login?redirect=%2F", ReasonUnauthenticated},
		{"eula before role", loggedIn(domain.RoleTecnico, false), "/admin/roles", ActionRedirect, "/lisencia?redirect=%2Fadmin%2Froles", ReasonEULAPending},
		{"eula pending on home", loggedIn(domain.RoleAdministrador, false), "/", ActionRedirect, "/lisencia?redirect=%2F", ReasonEULAPending},
		{"role denied", loggedIn(domain.RoleTecnico, true), "/admin/roles", ActionRedirect, "/auth/access", ReasonInsufficientRoles},
		{"role granted", loggedIn(domain.RoleAdministrador, true), "/admin/roles", ActionAllow, "", ""},
		{"all roles", loggedIn(domain.RoleObservador, true), "/profile", ActionAllow, "", ""},
		{"multi role list", loggedIn(domain.RoleEncargadoArea, true), "/centro-servicios/tickets", ActionAllow, "", ""},
		{"unknown path", loggedIn(domain.RoleAdministrador, true), "/no/existe", ActionRedirect, "/pages/notfound", ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGuard(t, tt.session, nil)
			d := g.Evaluate(context.Background(), tt.path)
			assert.Equal(t, tt.wantAction, d.Action)
			assert.Equal(t, tt.wantTarget, d.Target)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.path, d.Path)
		})
	}
}

func TestEvaluate_Params(t *testing.T) {
	g := newGuard(t, loggedIn(domain.RoleTecnico, true), nil)
	d := g.Evaluate(context.Background(), "/notificaciones/77")
	assert.Equal(t, ActionAllow, d.Action)
	assert.Equal(t, "77", d.Params["id"])
	assert.Equal(t, "views/NotificacionDetail.vue", d.Route.ComponentPath)
}

func TestEvaluate_SeesEULAAcceptedWithoutRelogin(t *testing.T) {
	sess := &mutableSession{session: loggedIn(domain.RoleAdministrador, false).session}
	g := newGuard(t, sess, nil)

	assert.Equal(t, ReasonEULAPending, g.Evaluate(context.Background(), "/admin/roles").Reason)

	sess.session.User.EULAAccepted = true
	assert.Equal(t, ActionAllow, g.Evaluate(context.Background(), "/admin/roles").Action)
}

type mutableSession struct {
	session domain.Session
}

func (m *mutableSession) Session() domain.Session { return m.session }

func TestEvaluate_Titles(t *testing.T) {
	var titles []string
	g := newGuard(t, anonymous(), TitleFunc(func(s string) { titles = append(titles, s) }))

	g.Evaluate(context.Background(), "/auth/login")
	g.Evaluate(context.Background(), "/admin/roles")

	assert.Equal(t, []string{"Iniciar Sesión - NEXUS", "Gestión de Roles - NEXUS"}, titles)
	assert.Equal(t, "NEXUS |CNM|", Title(domain.RouteMeta{}))
}

func TestEvaluate_TitleSinkPanicDoesNotCrash(t *testing.T) {
	g := newGuard(t, anonymous(), TitleFunc(func(string) { panic("display gone") }))
	assert.NotPanics(t, func() {
		d := g.Evaluate(context.Background(), "/auth/login")
		assert.Equal(t, ActionAllow, d.Action)
	})
}

func TestNavigate(t *testing.T) {
	t.Run("anonymous lands on login", func(t *testing.T) {
		g := newGuard(t, anonymous(), nil)
		chain, err := g.Navigate(context.Background(), "/admin/roles")
		require.NoError(t, err)
		require.Len(t, chain, 2)
		last := chain[len(chain)-1]
		assert.Equal(t, ActionAllow, last.Action)
		assert.Equal(t, "login", last.Route.Name)
		assert.Equal(t, "/admin/roles", ReturnTarget(chain[0].Target))
	})

	t.Run("eula then page", func(t *testing.T) {
		g := newGuard(t, loggedIn(domain.RoleTecnico, false), nil)
		chain, err := g.Navigate(context.Background(), "/admin/roles")
		require.NoError(t, err)
		require.Len(t, chain, 2)
		assert.Equal(t, routes.PathEULA, chain[1].Route.Path)
	})

	t.Run("denied lands on access page", func(t *testing.T) {
		g := newGuard(t, loggedIn(domain.RoleTecnico, true), nil)
		chain, err := g.Navigate(context.Background(), "/admin/casinos")
		require.NoError(t, err)
		assert.Equal(t, "accessDenied", chain[len(chain)-1].Route.Name)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		g := newGuard(t, anonymous(), nil)
		_, err := g.Navigate(ctx, "/")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// loopMatcher всегда возвращает защищенный маршрут, даже для страницы входа
type loopMatcher struct{}

func (loopMatcher) Match(string) (domain.RouteEntry, map[string]string, bool) {
	return domain.RouteEntry{Path: "/x", Meta: domain.RouteMeta{RequiresAuth: true}}, nil, true
}

func TestNavigate_HopLimit(t *testing.T) {
	g := New(loopMatcher{}, anonymous(), nil, nil)
	chain, err := g.Navigate(context.Background(), "/x")
	require.Error(t, err)
	assert.Len(t, chain, maxHops+1)
}

func TestReturnTarget(t *testing.T) {
	assert.Equal(t, "/admin/roles?tab=1", ReturnTarget("/auth/login?redirect=%2Fadmin%2Froles%3Ftab%3D1"))
	assert.Empty(t, ReturnTarget("/auth/access"))
}
