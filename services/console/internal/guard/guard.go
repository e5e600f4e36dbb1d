// Package guard проверяет каждый переход между маршрутами.
package guard

import (
	"context"
	"net/url"

	"NexusPlatform/pkg/errors"
	"NexusPlatform/pkg/logger"
	"NexusPlatform/services/console/internal/access"
	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/routes"
)

const (
	maxHops      = 5
	defaultTitle = "NEXUS |CNM|"
	titleSuffix  = " - NEXUS"
)

// Action итог проверки перехода
type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
)

// Причины перенаправления
const (
	ReasonNotFound          = "not_found"
	ReasonAlreadyLoggedIn   = "already_authenticated"
	ReasonUnauthenticated   = "unauthenticated"
	ReasonEULAPending       = "eula_pending"
	ReasonInsufficientRoles = "insufficient_role"
)

// Decision решение по одному переходу
type Decision struct {
	Action Action            `json:"action"`
	Path   string            `json:"path"`
	Target string            `json:"target,omitempty"`
	Reason string            `json:"reason,omitempty"`
	Route  domain.RouteEntry `json:"route"`
	Params map[string]string `json:"params,omitempty"`
}

// SessionSource текущая сессия
type SessionSource interface {
	Session() domain.Session
}

// Matcher находит маршрут по пути
type Matcher interface {
	Match(rawPath string) (domain.RouteEntry, map[string]string, bool)
}

// TitleSink получает заголовок экрана при каждом переходе
type TitleSink interface {
	SetTitle(title string)
}

// TitleFunc адаптер функции к TitleSink
type TitleFunc func(string)

// SetTitle вызывает f
func (f TitleFunc) SetTitle(title string) { f(title) }

// Guard конечный автомат проверки переходов
type Guard struct {
	matcher  Matcher
	sessions SessionSource
	titles   TitleSink
	logger   logger.Logger
}

// New создает Guard; titles может быть nil
func New(matcher Matcher, sessions SessionSource, titles TitleSink, log logger.Logger) *Guard {
	if log == nil {
		log = logger.NewNop()
	}
	return &Guard{
		matcher:  matcher,
		sessions: sessions,
		titles:   titles,
		logger:   log.With(logger.String("component", "guard")),
	}
}

// Title строит заголовок экрана
func Title(meta domain.RouteMeta) string {
	if meta.Title == "" {
		return defaultTitle
	}
	return meta.Title + titleSuffix
}

// Evaluate проверяет один переход. Порядок шагов важен: лицензия проверяется
// раньше ролей, так как непринятая лицензия закрывает все рабочие маршруты.
func (g *Guard) Evaluate(ctx context.Context, rawPath string) Decision {
	entry, params, ok := g.matcher.Match(rawPath)
	if !ok {
		if pathOnly(rawPath) == routes.PathNotFound {
			return Decision{Action: ActionAllow, Path: rawPath}
		}
		return g.redirect(rawPath, routes.PathNotFound, ReasonNotFound, domain.RouteEntry{}, nil)
	}

	g.setTitle(entry.Meta)

	session := g.sessions.Session()
	authenticated := session.IsAuthenticated()

	if entry.Meta.Public || !entry.Meta.RequiresAuth {
		if authenticated && entry.Path == routes.PathLogin {
			return g.redirect(rawPath, routes.PathHome, ReasonAlreadyLoggedIn, entry, params)
		}
		return g.allow(rawPath, entry, params)
	}

	if !authenticated {
		return g.redirect(rawPath, withReturn(routes.PathLogin, rawPath), ReasonUnauthenticated, entry, params)
	}

	if !session.User.EULAAccepted && entry.Path != routes.PathEULA {
		return g.redirect(rawPath, withReturn(routes.PathEULA, rawPath), ReasonEULAPending, entry, params)
	}

	if len(entry.Meta.Roles) > 0 && !access.HasRoleAccess(entry.Meta.Roles, session.User) {
		g.logger.Info("route denied by role",
			logger.String("path", rawPath),
			logger.String("role", session.User.RolNombre),
			logger.Strings("required", entry.Meta.Roles),
		)
		return g.redirect(rawPath, routes.PathAccessDenied, ReasonInsufficientRoles, entry, params)
	}

	return g.allow(rawPath, entry, params)
}

// Navigate следует перенаправлениям до разрешенного маршрута и возвращает
// всю цепочку решений. Последнее решение в цепочке всегда allow.
func (g *Guard) Navigate(ctx context.Context, rawPath string) ([]Decision, error) {
	var chain []Decision
	path := rawPath
	for hop := 0; hop <= maxHops; hop++ {
		if err := ctx.Err(); err != nil {
			return chain, err
		}
		d := g.Evaluate(ctx, path)
		chain = append(chain, d)
		if d.Action == ActionAllow {
			return chain, nil
		}
		path = d.Target
	}
	g.logger.Error("redirect loop detected", logger.String("path", rawPath), logger.Int("hops", len(chain)))
	return chain, errors.New(errors.ErrInternal, "demasiadas redirecciones").WithDetails(rawPath)
}

func (g *Guard) allow(path string, entry domain.RouteEntry, params map[string]string) Decision {
	g.logger.Debug("navigation allowed", logger.String("path", path))
	return Decision{Action: ActionAllow, Path: path, Route: entry, Params: params}
}

func (g *Guard) redirect(path, target, reason string, entry domain.RouteEntry, params map[string]string) Decision {
	g.logger.Debug("navigation redirected",
		logger.String("path", path),
		logger.String("target", target),
		logger.String("reason", reason),
	)
	return Decision{Action: ActionRedirect, Path: path, Target: target, Reason: reason, Route: entry, Params: params}
}

func (g *Guard) setTitle(meta domain.RouteMeta) {
	if g.titles == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("title sink panicked", logger.Any("panic", r))
		}
	}()
	g.titles.SetTitle(Title(meta))
}

// withReturn добавляет исходный путь в параметр redirect
func withReturn(target, from string) string {
	return target + "?" + url.Values{"redirect": {from}}.Encode()
}

func pathOnly(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

// ReturnTarget извлекает параметр redirect из пути перенаправления
func ReturnTarget(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Query().Get("redirect")
}
