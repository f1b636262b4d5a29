package lib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type FormatType string

const (
	Pretty FormatType = "pretty"
	Text   FormatType = "text"
	JSON   FormatType = "json"
	YAML   FormatType = "yaml"
	Table  FormatType = "table"
)

type Formattable interface {
	String() string
	Pretty() string
	TableHeaders() []string
	TableRow() []string
}

// FormatOutput renders a list of items in the requested format
func FormatOutput[T Formattable](data []T, format FormatType) (string, error) {
	switch format {
	case Text:
		lines := make([]string, 0, len(data))
		for _, item := range data {
			lines = append(lines, item.String())
		}
		return strings.Join(lines, "\n"), nil
	case Pretty:
		blocks := make([]string, 0, len(data))
		for _, item := range data {
			blocks = append(blocks, item.Pretty())
		}
		return strings.Join(blocks, "\n"), nil
	case JSON:
		if data == nil {
			data = []T{}
		}
		j, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(j), nil
	case YAML:
		y, err := yaml.Marshal(data)
		if err != nil {
			return "", err
		}
		return string(y), nil
	case Table:
		rows := make([][]string, 0, len(data))
		for _, item := range data {
			rows = append(rows, item.TableRow())
		}
		var headers []string
		if len(data) > 0 {
			headers = data[0].TableHeaders()
		}
		return renderTable(headers, rows), nil
	default:
		return "", fmt.Errorf("unknown format: %v", format)
	}
}

func renderTable(headers []string, rows [][]string) string {
	buffer := new(bytes.Buffer)
	table := tablewriter.NewWriter(buffer)
	if len(headers) > 0 {
		table.SetHeader(headers)
	}
	table.SetBorder(true)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
	return buffer.String()
}

// FormatOutputToFile renders the items and writes them to filepath
func FormatOutputToFile[T Formattable](data []T, format FormatType, filepath string) error {
	formattedData, err := FormatOutput(data, format)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath, []byte(formattedData), 0644)
}

// ParseFormatType converts a string format to a FormatType.
func ParseFormatType(format string) (FormatType, error) {
	switch FormatType(strings.ToLower(format)) {
	case Pretty, Text, JSON, YAML, Table:
		return FormatType(strings.ToLower(format)), nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}
