package lib

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockData struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

func (m MockData) String() string {
	return m.Name
}

func (m MockData) Pretty() string {
	return fmt.Sprintf("Name: %s | Content: %s", m.Name, m.Content)
}

func (m MockData) TableHeaders() []string {
	return []string{"Name", "Content"}
}

func (m MockData) TableRow() []string {
	return []string{m.Name, m.Content}
}

func TestFormatOutput(t *testing.T) {
	data := []MockData{
		{Name: "Test", Content: "Sample Content"},
		{Name: "Other", Content: "More"},
	}

	tests := []struct {
		format FormatType
		output string
		hasErr bool
	}{
		{Text, "Test\nOther", false},
		{Pretty, "Name: Test | Content: Sample Content\nName: Other | Content: More", false},
		{JSON, `[
  {
    "name": "Test",
    "content": "Sample Content"
  },
  {
    "name": "Other",
    "content": "More"
  }
]`, false},
		{YAML, "- name: Test\n  content: Sample Content\n- name: Other\n  content: More\n", false},
		{FormatType("unknown"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			result, err := FormatOutput(data, tt.format)
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.output, result)
		})
	}
}

func TestFormatOutputTable(t *testing.T) {
	result, err := FormatOutput([]MockData{{Name: "Test", Content: "Sample Content"}}, Table)
	require.NoError(t, err)
	assert.Contains(t, result, "NAME")
	assert.Contains(t, result, "Sample Content")
}

func TestFormatOutputEmptyJSON(t *testing.T) {
	result, err := FormatOutput([]MockData(nil), JSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", result)
}

func TestFormatOutputToFile(t *testing.T) {
	data := []MockData{{Name: "Test", Content: "Sample Content"}}
	path := filepath.Join(t.TempDir(), "output.txt")

	err := FormatOutputToFile(data, Pretty, path)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Name: Test | Content: Sample Content", string(content))
}

func TestParseFormatType(t *testing.T) {
	format, err := ParseFormatType("JSON")
	require.NoError(t, err)
	assert.Equal(t, JSON, format)

	_, err = ParseFormatType("xml")
	assert.Error(t, err)
}
