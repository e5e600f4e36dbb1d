package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"NexusPlatform/pkg/health"
	"NexusPlatform/services/console/internal/domain"
	"NexusPlatform/services/console/internal/guard"
	"NexusPlatform/services/console/internal/notification"
	"NexusPlatform/services/console/internal/output"
	"NexusPlatform/services/console/internal/routes"
)

// message результат команды без данных
type message struct {
	Message string `json:"message"`
}

func (m message) String() string { return "✅ " + m.Message }

// sessionView состояние сессии
type sessionView struct {
	Authenticated bool                `json:"authenticated"`
	User          *domain.UserProfile `json:"usuario,omitempty"`
	Roles         int                 `json:"roles_cached"`
}

func newSessionView(s domain.Session, roles []domain.Role) sessionView {
	return sessionView{Authenticated: s.IsAuthenticated(), User: s.User, Roles: len(roles)}
}

func (v sessionView) Table() *output.TableData {
	if !v.Authenticated || v.User == nil {
		return output.KeyValue("sesión", "sin sesión activa")
	}
	td := output.KeyValue(
		"usuario", v.User.Username,
		"nombre", v.User.DisplayName(),
		"rol", v.User.RolNombre,
		"casino", v.User.CasinoNombre,
		"roles en caché", strconv.Itoa(v.Roles),
	)
	style := output.StyleSuccess
	if !v.User.EULAAccepted {
		style = output.StyleWarning
	}
	td.AddRowWithStyle(style, "licencia aceptada", output.YesNo(v.User.EULAAccepted))
	return td
}

// roleList каталог ролей
type roleList []domain.Role

func (l roleList) Table() *output.TableData {
	td := output.NewTableData("ID", "NOMBRE", "ACTIVO", "DESCRIPCIÓN")
	for _, r := range l {
		td.AddRow(strconv.FormatInt(r.ID, 10), r.Nombre, output.YesNo(r.EstaActivo), output.Truncate(r.Descripcion, 50))
	}
	return td
}

// notificationList список уведомлений
type notificationList []domain.Notification

func (l notificationList) Table() *output.TableData {
	td := output.NewTableData("ID", "NIVEL", "TIPO", "TÍTULO", "CREADO", "LEÍDO")
	for _, n := range l {
		style := output.StyleDefault
		if !n.Leido {
			switch n.Nivel {
			case domain.NivelUrgente:
				style = output.StyleError
			case domain.NivelAlerta:
				style = output.StyleWarning
			default:
				style = output.StyleInfo
			}
		}
		td.AddRowWithStyle(style,
			strconv.FormatInt(n.ID, 10),
			n.Nivel.Icon()+" "+string(n.Nivel),
			string(n.Tipo),
			output.Truncate(n.Titulo, 60),
			output.Timestamp(n.CreadoEn),
			output.YesNo(n.Leido),
		)
	}
	return td
}

// notificationView одно уведомление
type notificationView struct {
	domain.Notification
	Unread *int `json:"unread,omitempty"`
}

func (v notificationView) Table() *output.TableData {
	n := v.Notification
	td := output.KeyValue(
		"id", strconv.FormatInt(n.ID, 10),
		"título", n.Titulo,
		"nivel", n.Nivel.Icon()+" "+string(n.Nivel),
		"tipo", string(n.Tipo),
		"contenido", n.Contenido,
		"global", output.YesNo(n.EsGlobal),
		"del director", output.YesNo(n.EsDelDirector),
		"creado", output.Timestamp(n.CreadoEn),
		"creado por", n.CreadoPor,
		"leído", output.YesNo(n.Leido),
	)
	if v.Unread != nil {
		td.AddRow("no leídas", strconv.Itoa(*v.Unread))
	}
	return td
}

// unreadView счетчик непрочитанных
type unreadView struct {
	Count int `json:"count"`
}

func (v unreadView) String() string {
	return fmt.Sprintf("🔔 No leídas: %d", v.Count)
}

// markAllView итог массовой отметки
type markAllView struct {
	notification.MarkAllResult
	Unread int `json:"unread"`
}

func (v markAllView) Table() *output.TableData {
	td := output.KeyValue(
		"marcadas", strconv.Itoa(v.MarkedCount),
		"no leídas", strconv.Itoa(v.Unread),
	)
	for _, f := range v.Failed {
		td.AddRowWithStyle(output.StyleError, fmt.Sprintf("fallo #%d", f.ID), f.Error)
	}
	return td
}

// receiptList квитанции о прочтении
type receiptList []domain.ReadReceipt

func (l receiptList) Table() *output.TableData {
	td := output.NewTableData("ID", "NOTIFICACIÓN", "USUARIO", "VISTO")
	for _, r := range l {
		td.AddRow(
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.Notificacion, 10),
			strconv.FormatInt(r.Usuario, 10),
			output.Timestamp(r.FechaVisto),
		)
	}
	return td
}

// routeList таблица маршрутов
type routeList struct {
	Routes     []domain.RouteEntry      `json:"routes"`
	Unresolved []domain.UnresolvedRoute `json:"unresolved,omitempty"`
}

func (l routeList) Table() *output.TableData {
	td := output.NewTableData("RUTA", "NOMBRE", "COMPONENTE", "TÍTULO", "ACCESO")
	for _, r := range l.Routes {
		td.AddRow(r.Path, r.Name, r.ComponentPath, r.Meta.Title, accessLabel(r.Meta))
	}
	for _, u := range l.Unresolved {
		td.AddRowWithStyle(output.StyleError, u.Path, "-", u.ComponentPath, "-", "✗ "+u.Reason)
	}
	return td
}

func accessLabel(meta domain.RouteMeta) string {
	switch {
	case meta.Public:
		return "pública"
	case meta.Roles.AllowsAnyone():
		return "autenticado"
	default:
		return strings.Join(meta.Roles, ", ")
	}
}

// decisionList цепочка решений охранника
type decisionList []guard.Decision

func (l decisionList) Table() *output.TableData {
	td := output.NewTableData("PASO", "RUTA", "ACCIÓN", "DESTINO", "MOTIVO")
	for i, d := range l {
		style := output.StyleSuccess
		if d.Action == guard.ActionRedirect {
			style = output.StyleWarning
		}
		td.AddRowWithStyle(style,
			strconv.Itoa(i+1),
			d.Path,
			output.StatusIcon(string(d.Action))+" "+string(d.Action),
			d.Target,
			d.Reason,
		)
	}
	return td
}

// menuView загруженное меню
type menuView struct {
	routes.LoadedMenu
}

func (v menuView) Table() *output.TableData {
	td := output.NewTableData("MENÚ", "RUTA", "COMPONENTE", "ROLES")
	var walk func(nodes []domain.MenuNode, depth int)
	walk = func(nodes []domain.MenuNode, depth int) {
		for _, n := range nodes {
			indent := strings.Repeat("  ", depth)
			if n.Kind == domain.MenuGroup {
				td.AddRowWithStyle(output.StyleInfo, indent+"▸ "+n.Title, "", "", strings.Join(n.Roles, ", "))
			} else {
				td.AddRow(indent+n.Title, n.Path, n.ComponentPath, strings.Join(n.Roles, ", "))
			}
			walk(n.Children, depth+1)
		}
	}
	walk(v.Menu, 0)

	td.AddRowWithStyle(output.StyleInfo, "origen: "+string(v.Origin), "", "", "")
	for _, d := range v.Diagnostics {
		td.AddRowWithStyle(output.StyleWarning, "⚠ "+d.Location, d.Path, "", d.Message)
	}
	for _, p := range v.MissingDefaults {
		td.AddRowWithStyle(output.StyleWarning, "⚠ falta en la configuración", p, "", "")
	}
	return td
}

// diagnosticList замечания проверки меню
type diagnosticList struct {
	Saved       bool                `json:"saved"`
	Diagnostics []routes.Diagnostic `json:"diagnostics,omitempty"`
}

func (v diagnosticList) Table() *output.TableData {
	td := output.NewTableData("UBICACIÓN", "RUTA", "MENSAJE")
	if v.Saved {
		td.AddRowWithStyle(output.StyleSuccess, "menú", "", "✅ configuración guardada")
	}
	for _, d := range v.Diagnostics {
		td.AddRowWithStyle(output.StyleWarning, d.Location, d.Path, d.Message)
	}
	return td
}

// healthView результат проверки компонентов
type healthView struct {
	*health.HealthStatus
}

func (v healthView) Table() *output.TableData {
	td := output.NewTableData("COMPONENTE", "ESTADO", "LATENCIA", "DETALLE")
	for _, name := range v.Names() {
		s := v.Services[name]
		style := output.StyleSuccess
		if s.Status != health.StatusHealthy {
			style = output.StyleError
		}
		td.AddRowWithStyle(style, name, output.StatusIcon(s.Status)+" "+s.Status, s.Latency, s.Details)
	}
	return td
}

// configView текущая конфигурация консоли
type configView struct {
	Path   string            `json:"path"`
	Values map[string]string `json:"values"`
}

func (v configView) Table() *output.TableData {
	td := output.NewTableData("CLAVE", "VALOR")
	keys := make([]string, 0, len(v.Values))
	for k := range v.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		td.AddRow(k, v.Values[k])
	}
	td.AddRowWithStyle(output.StyleInfo, "archivo", v.Path)
	return td
}
