package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const totalLineFmt = "Total: %d\n"

var (
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Underline(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	recordHeader = []string{"KEY", "VALUE"}
)

// Renderer writes controller responses and local data in one format.
type Renderer struct {
	Out    io.Writer
	Format Format
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, format Format) *Renderer {
	return &Renderer{Out: out, Format: format}
}

// Render writes local data (configuration, version, listings).
func (r *Renderer) Render(data any) error {
	return NewFormatter(r.Format).Format(r.Out, data)
}

// RenderBody writes a controller response. Bodies that are not JSON, and
// every body in text format, are echoed verbatim. Any other body is
// rendered in the chosen format and followed by its count: the length of
// an array, 1 for an object, 0 for anything else. Tables show only the
// objects of an array; fields, when given, select and order the columns.
func (r *Renderer) RenderBody(body []byte, fields []string) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	var decoded any
	if r.Format == FormatText || json.Unmarshal(trimmed, &decoded) != nil {
		return r.echo(body)
	}

	records, count := asRecords(decoded)
	switch r.Format {
	case FormatJSON:
		if err := (&JSONFormatter{}).Format(r.Out, decoded); err != nil {
			return err
		}
	case FormatYAML:
		if err := (&YAMLFormatter{}).Format(r.Out, decoded); err != nil {
			return err
		}
	default:
		switch {
		case len(records) > 0:
			fmt.Fprintln(r.Out, recordTable(records, fields).Render())
		case isScalar(decoded):
			fmt.Fprintln(r.Out, Cell(decoded))
		}
	}
	_, err := fmt.Fprintf(r.Out, totalLineFmt, count)
	return err
}

func (r *Renderer) echo(body []byte) error {
	if _, err := r.Out.Write(body); err != nil {
		return err
	}
	if !bytes.HasSuffix(body, []byte("\n")) {
		_, err := io.WriteString(r.Out, "\n")
		return err
	}
	return nil
}

// asRecords returns the objects of a decoded body and its count. A single
// object is a list of one; array elements that are not objects count but
// are not records.
func asRecords(decoded any) ([]map[string]any, int) {
	switch v := decoded.(type) {
	case map[string]any:
		return []map[string]any{v}, 1
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, len(v)
	default:
		return nil, 0
	}
}

func isScalar(decoded any) bool {
	switch decoded.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// recordTable lays records out as one row per record under the field
// headers, or without fields as a KEY/VALUE block per record. Fields a
// record lacks leave its row short.
func recordTable(records []map[string]any, fields []string) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle)

	if len(fields) > 0 {
		t.Headers(fields...)
		for _, rec := range records {
			row := make([]string, 0, len(fields))
			for _, f := range fields {
				v, ok := rec[f]
				if !ok {
					continue
				}
				row = append(row, Cell(v))
			}
			t.Row(row...)
		}
		return t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	}

	headerRows := make(map[int]bool)
	n := 0
	for _, rec := range records {
		headerRows[n] = true
		t.Row(recordHeader...)
		n++
		for _, k := range sortedKeys(rec) {
			t.Row(k, Cell(rec[k]))
			n++
		}
	}
	return t.StyleFunc(func(row, _ int) lipgloss.Style {
		if headerRows[row] {
			return headerStyle
		}
		return cellStyle
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Cell formats one response value: strings bare, anything else as compact
// JSON.
func Cell(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
