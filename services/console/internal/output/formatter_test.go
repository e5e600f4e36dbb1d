package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID     int64  `json:"id"`
	Titulo string `json:"titulo"`
}

type sampleList []sample

func (l sampleList) Table() *TableData {
	td := NewTableData("ID", "TITULO")
	for _, s := range l {
		td.AddRow("1", s.Titulo)
	}
	return td
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FormatType
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableData_String(t *testing.T) {
	td := NewTableData("ID", "TITULO")
	assert.Equal(t, "Sin resultados", td.String())

	td.AddRow("1", "Mantenimiento")
	td.AddRowWithStyle(StyleError, "22", "Caída")

	lines := strings.Split(td.String(), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "--")
	assert.Contains(t, lines[3], "Caída")
}

func TestJSONFormatter_UsesTags(t *testing.T) {
	out, err := NewJSONFormatter(false).Format(sample{ID: 7, Titulo: "Hola"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"titulo":"Hola"}`, out)
}

func TestYAMLFormatter_UsesJSONNames(t *testing.T) {
	out, err := NewYAMLFormatter().Format(sample{ID: 7, Titulo: "Hola"})
	require.NoError(t, err)
	assert.Contains(t, out, "titulo: Hola")
	assert.Contains(t, out, "id: 7")
}

func TestTableFormatter_Tabular(t *testing.T) {
	out, err := NewTableFormatter().Format(sampleList{{ID: 1, Titulo: "Aviso"}})
	require.NoError(t, err)
	assert.Contains(t, out, "TITULO")
	assert.Contains(t, out, "Aviso")
}

func TestColorFormatter_StylesRows(t *testing.T) {
	td := NewTableData("ID")
	td.AddRowWithStyle(StyleSuccess, "ok")

	out, err := GetFormatter(FormatTable, false, true).Format(td)
	require.NoError(t, err)
	assert.Contains(t, out, ansiBlue+"ID")
	assert.Contains(t, out, ansiGreen+"ok")

	plain, err := GetFormatter(FormatTable, false, false).Format(td)
	require.NoError(t, err)
	assert.NotContains(t, plain, "\033[")
}

func TestGetFormatter_NoColorsForStructured(t *testing.T) {
	_, ok := GetFormatter(FormatJSON, true, true).(*JSONFormatter)
	assert.True(t, ok)
}

func TestWrite_AppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewTableFormatter(), "✅ listo"))
	assert.Equal(t, "✅ listo\n", buf.String())
}

func TestDetectFormat(t *testing.T) {
	t.Setenv("NEXUS_FORMAT", "yaml")
	assert.Equal(t, FormatYAML, DetectFormat())

	t.Setenv("NEXUS_FORMAT", "bogus")
	assert.Equal(t, FormatTable, DetectFormat())
}

func TestDetectColors_Env(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	require.NoError(t, os.Unsetenv("NO_COLOR"))

	t.Setenv("NEXUS_COLORS", "true")
	assert.True(t, DetectColors())
	t.Setenv("NEXUS_COLORS", "false")
	assert.False(t, DetectColors())

	t.Setenv("NEXUS_COLORS", "true")
	t.Setenv("NO_COLOR", "1")
	assert.False(t, DetectColors())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ñan…", Truncate("ñandú grande", 4))
	assert.Equal(t, "sí", YesNo(true))
	assert.Equal(t, "✗", StatusIcon("unhealthy"))

	kv := KeyValue("usuario", "robert", "rol")
	require.Len(t, kv.Rows, 1)
}
