package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// FormatType представляет тип форматирования вывода
type FormatType string

const (
	FormatTable FormatType = "table"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// Formats допустимые форматы вывода
var Formats = []string{string(FormatTable), string(FormatJSON), string(FormatYAML)}

// ParseFormat разбирает имя формата; пустое значение означает таблицу
func ParseFormat(value string) (FormatType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("formato de salida no soportado: %s", value)
	}
}

// Formatter интерфейс для форматирования вывода
type Formatter interface {
	Format(data interface{}) (string, error)
}

// Tabular реализуют результаты, у которых есть табличное представление
type Tabular interface {
	Table() *TableData
}

// TableFormatter форматирует данные в виде таблицы
type TableFormatter struct{}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

func (f *TableFormatter) Format(data interface{}) (string, error) {
	switch v := data.(type) {
	case *TableData:
		return v.String(), nil
	case Tabular:
		return v.Table().String(), nil
	case fmt.Stringer:
		return v.String(), nil
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// JSONFormatter форматирует данные в JSON
type JSONFormatter struct {
	Pretty bool
}

func NewJSONFormatter(pretty bool) *JSONFormatter {
	return &JSONFormatter{Pretty: pretty}
}

func (f *JSONFormatter) Format(data interface{}) (string, error) {
	var out []byte
	var err error

	if f.Pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return "", fmt.Errorf("error al serializar JSON: %w", err)
	}

	return string(out), nil
}

// YAMLFormatter форматирует данные в YAML.
// Значение сначала проходит через JSON, чтобы имена полей совпадали с json-тегами.
type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) Format(data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("error al serializar YAML: %w", err)
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("error al serializar YAML: %w", err)
	}

	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("error al serializar YAML: %w", err)
	}
	return string(out), nil
}

// ColorFormatter добавляет цветовое форматирование
type ColorFormatter struct {
	Formatter Formatter
	UseColors bool
}

func NewColorFormatter(formatter Formatter, useColors bool) *ColorFormatter {
	return &ColorFormatter{
		Formatter: formatter,
		UseColors: useColors,
	}
}

func (f *ColorFormatter) Format(data interface{}) (string, error) {
	out, err := f.Formatter.Format(data)
	if err != nil {
		return "", err
	}
	if !f.UseColors {
		return out, nil
	}

	if td, ok := asTable(data); ok && len(td.Rows) > 0 {
		return colorTable(out, td), nil
	}
	return colorLines(out), nil
}

func asTable(data interface{}) (*TableData, bool) {
	switch v := data.(type) {
	case *TableData:
		return v, true
	case Tabular:
		return v.Table(), true
	}
	return nil, false
}

// colorTable окрашивает заголовок и строки по их стилю
func colorTable(out string, td *TableData) string {
	lines := strings.Split(out, "\n")
	offset := 0
	if len(td.Headers) > 0 {
		offset = 2
	}
	for i, line := range lines {
		switch {
		case offset > 0 && i == 0:
			lines[i] = paint(ansiBlue, line)
		case offset > 0 && i == 1:
			lines[i] = paint(ansiGray, line)
		case i-offset < len(td.Rows):
			lines[i] = paint(styleColor(td.Rows[i-offset].Style), line)
		}
	}
	return strings.Join(lines, "\n")
}

func colorLines(out string) string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		switch {
		case strings.Contains(line, "✅"):
			lines[i] = paint(ansiGreen, line)
		case strings.Contains(line, "❌"):
			lines[i] = paint(ansiRed, line)
		case strings.Contains(line, "⚠"):
			lines[i] = paint(ansiYellow, line)
		}
	}
	return strings.Join(lines, "\n")
}

const (
	ansiBlue   = "\033[1;34m"
	ansiGray   = "\033[1;90m"
	ansiGreen  = "\033[1;32m"
	ansiRed    = "\033[1;31m"
	ansiYellow = "\033[1;33m"
	ansiCyan   = "\033[1;36m"
	ansiReset  = "\033[0m"
)

func styleColor(style RowStyle) string {
	switch style {
	case StyleSuccess:
		return ansiGreen
	case StyleError:
		return ansiRed
	case StyleWarning:
		return ansiYellow
	case StyleInfo:
		return ansiCyan
	default:
		return ""
	}
}

func paint(color, line string) string {
	if color == "" || line == "" {
		return line
	}
	return color + line + ansiReset
}

// GetFormatter возвращает подходящий форматировщик
func GetFormatter(format FormatType, pretty bool, useColors bool) Formatter {
	var base Formatter

	switch format {
	case FormatJSON:
		base = NewJSONFormatter(pretty)
	case FormatYAML:
		base = NewYAMLFormatter()
	default:
		base = NewTableFormatter()
	}

	if useColors && (format == FormatTable || format == "") {
		return NewColorFormatter(base, useColors)
	}
	return base
}

// Write форматирует данные и выводит их с переводом строки
func Write(w io.Writer, f Formatter, data interface{}) error {
	out, err := f.Format(data)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}

// DetectFormat определяет формат из переменной окружения NEXUS_FORMAT
func DetectFormat() FormatType {
	if format := os.Getenv("NEXUS_FORMAT"); format != "" {
		if f, err := ParseFormat(format); err == nil {
			return f
		}
	}
	return FormatTable
}

// DetectColors определяет нужно ли использовать цвета
func DetectColors() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if colors := os.Getenv("NEXUS_COLORS"); colors != "" {
		return strings.ToLower(colors) == "true"
	}
	return isTerminal()
}

// isTerminal проверяет, что вывод идет в терминал
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
