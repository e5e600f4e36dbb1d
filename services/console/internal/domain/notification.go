package domain

import (
	"sort"
	"time"
)

// Nivel уровень важности уведомления
type Nivel string

const (
	NivelUrgente     Nivel = "urgente"
	NivelAlerta      Nivel = "alerta"
	NivelInformativa Nivel = "informativa"
)

// Niveles допустимые уровни
var Niveles = []string{string(NivelUrgente), string(NivelAlerta), string(NivelInformativa)}

// Prioridad возвращает порядок сортировки: меньше значит важнее. Неизвестный уровень = informativa.
func (n Nivel) Prioridad() int {
	switch n {
	case NivelUrgente:
		return 1
	case NivelAlerta:
		return 2
	default:
		return 3
	}
}

// Icon значок уровня
func (n Nivel) Icon() string {
	switch n {
	case NivelUrgente:
		return "🚨"
	case NivelAlerta:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// Color цвет уровня
func (n Nivel) Color() string {
	switch n {
	case NivelUrgente:
		return "#ef4444"
	case NivelAlerta:
		return "#f59e0b"
	default:
		return "#3b82f6"
	}
}

// Tipo источник уведомления
type Tipo string

const (
	TipoTicket          Tipo = "ticket"
	TipoInfraestructura Tipo = "infraestructura"
	TipoWiki            Tipo = "wiki"
	TipoSistema         Tipo = "sistema"
	TipoDirector        Tipo = "DIRECTOR"
)

// Tipos допустимые типы
var Tipos = []string{string(TipoTicket), string(TipoInfraestructura), string(TipoWiki), string(TipoSistema), string(TipoDirector)}

// Notification уведомление. Leido вычисляется сервером для текущего пользователя
// и никогда не отправляется клиентом.
type Notification struct {
	ID             int64     `json:"id"`
	Titulo         string    `json:"titulo"`
	Contenido      string    `json:"contenido"`
	Nivel          Nivel     `json:"nivel"`
	Tipo           Tipo      `json:"tipo"`
	EsGlobal       bool      `json:"es_global"`
	EsDelDirector  bool      `json:"es_del_director"`
	CasinoDestino  *int64    `json:"casino_destino"`
	RolDestino     *int64    `json:"rol_destino"`
	UsuarioDestino *int64    `json:"usuario_destino"`
	EstaActivo     bool      `json:"esta_activo"`
	CreadoEn       time.Time `json:"creado_en"`
	CreadoPor      string    `json:"creado_por,omitempty"`
	Leido          bool      `json:"leido"`
}

// NotificationInput тело запросов создания и изменения уведомления.
// Поля leido здесь нет: статус прочтения меняется только через квитанции.
type NotificationInput struct {
	Titulo         string `json:"titulo,omitempty"`
	Contenido      string `json:"contenido,omitempty"`
	Nivel          Nivel  `json:"nivel,omitempty"`
	Tipo           Tipo   `json:"tipo,omitempty"`
	EsGlobal       *bool  `json:"es_global,omitempty"`
	EsDelDirector  *bool  `json:"es_del_director,omitempty"`
	CasinoDestino  *int64 `json:"casino_destino,omitempty"`
	RolDestino     *int64 `json:"rol_destino,omitempty"`
	UsuarioDestino *int64 `json:"usuario_destino,omitempty"`
}

// ReadReceipt квитанция о прочтении (пара уведомление/пользователь уникальна на сервере)
type ReadReceipt struct {
	ID           int64     `json:"id"`
	Notificacion int64     `json:"notificacion"`
	Usuario      int64     `json:"usuario"`
	FechaVisto   time.Time `json:"fecha_visto"`
}

// MarkReadResult ответ PATCH /notificaciones/{id}/marcar-leida/.
// Created == false означает, что квитанция уже существовала.
type MarkReadResult struct {
	Status     string    `json:"status"`
	Leido      bool      `json:"leido"`
	Created    bool      `json:"created"`
	FechaVisto time.Time `json:"fecha_visto"`
}

// ReceiptResult ответ POST /notificaciones-usuarios/
type ReceiptResult struct {
	Success bool        `json:"success"`
	Created bool        `json:"created"`
	Data    ReadReceipt `json:"data"`
}

// UnreadCount ответ GET /notificaciones/count-no-leidas/
type UnreadCount struct {
	Count int `json:"count"`
}

// SortByPriority сортирует по важности, внутри уровня более новые первыми.
// Исходный срез не изменяется.
func SortByPriority(items []Notification) []Notification {
	sorted := make([]Notification, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Nivel.Prioridad(), sorted[j].Nivel.Prioridad()
		if pi != pj {
			return pi < pj
		}
		return sorted[i].CreadoEn.After(sorted[j].CreadoEn)
	})
	return sorted
}

// CountUnread считает непрочитанные в списке
func CountUnread(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.Leido {
			n++
		}
	}
	return n
}
