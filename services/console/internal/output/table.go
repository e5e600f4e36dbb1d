package output

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// TableData представляет данные для табличного вывода
type TableData struct {
	Headers []string
	Rows    []*TableRow
}

// TableRow представляет строку таблицы
type TableRow struct {
	Cells []string
	Style RowStyle
}

// RowStyle определяет стиль строки
type RowStyle int

const (
	StyleDefault RowStyle = iota
	StyleSuccess
	StyleError
	StyleWarning
	StyleInfo
)

// NewTableData создает новые табличные данные
func NewTableData(headers ...string) *TableData {
	return &TableData{
		Headers: headers,
		Rows:    make([]*TableRow, 0),
	}
}

// AddRow добавляет строку
func (td *TableData) AddRow(cells ...string) {
	td.Rows = append(td.Rows, &TableRow{Cells: cells})
}

// AddRowWithStyle добавляет строку с указанием стиля
func (td *TableData) AddRowWithStyle(style RowStyle, cells ...string) {
	td.Rows = append(td.Rows, &TableRow{Cells: cells, Style: style})
}

// String возвращает строковое представление таблицы
func (td *TableData) String() string {
	if len(td.Rows) == 0 {
		return "Sin resultados"
	}

	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	if len(td.Headers) > 0 {
		fmt.Fprintln(w, strings.Join(td.Headers, "\t"))
		separators := make([]string, len(td.Headers))
		for i := range separators {
			separators[i] = strings.Repeat("-", len([]rune(td.Headers[i])))
		}
		fmt.Fprintln(w, strings.Join(separators, "\t"))
	}

	for _, row := range td.Rows {
		fmt.Fprintln(w, strings.Join(row.Cells, "\t"))
	}

	w.Flush()
	return strings.TrimRight(builder.String(), "\n")
}

// KeyValue таблица «поле/значение» для одиночных объектов
func KeyValue(pairs ...string) *TableData {
	td := NewTableData("CAMPO", "VALOR")
	for i := 0; i+1 < len(pairs); i += 2 {
		td.AddRow(pairs[i], pairs[i+1])
	}
	return td
}

// Timestamp форматирует время; нулевое значение выводится как "-"
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// Truncate обрезает строку до max символов
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// YesNo выводит булево значение по-испански
func YesNo(v bool) string {
	if v {
		return "sí"
	}
	return "no"
}

// StatusIcon возвращает иконку для статуса
func StatusIcon(status string) string {
	switch strings.ToLower(status) {
	case "ok", "healthy", "allow", "success":
		return "✓"
	case "error", "unhealthy", "failed":
		return "✗"
	case "redirect", "degraded", "warning", "pending":
		return "⚠"
	default:
		return "?"
	}
}
