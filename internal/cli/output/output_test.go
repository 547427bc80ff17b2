package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "", want: FormatTable},
		{input: "table", want: FormatTable},
		{input: " JSON ", want: FormatJSON},
		{input: "yaml", want: FormatYAML},
		{input: "yml", want: FormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Name", "Count")
	table.AddRow("ops", "2")
	table.AddRow("research", "11")

	require.NoError(t, NewPrinter(&buf, FormatTable).Print(table))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "research")
	assert.Contains(t, out, "11")
}

func TestPrinter_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(row{Name: "a", Count: 1}))
	assert.Contains(t, buf.String(), `"name": "a"`)
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print([]row{{Name: "a", Count: 1}}))
	assert.Contains(t, buf.String(), `"count": 1`)
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(row{Name: "a", Count: 3}))
	assert.Contains(t, buf.String(), "name: a")
	assert.Contains(t, buf.String(), "count: 3")
}

func TestPrintFields(t *testing.T) {
	var buf bytes.Buffer
	PrintFields(&buf, [][2]string{{"Email", "a@b.com"}, {"Role", "admin"}})
	assert.Contains(t, buf.String(), "a@b.com")
	assert.Contains(t, buf.String(), "admin")
}
