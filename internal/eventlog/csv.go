package eventlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/entrystudy/internal/model"
)

// Schema selects how the column set of an export is derived.
type Schema int

const (
	// SchemaUnion uses every field seen in any event, in first-seen order.
	SchemaUnion Schema = iota
	// SchemaFirstEvent uses only the fields of the first event. Fields of later
	// events outside that set are dropped.
	SchemaFirstEvent
)

// Columns computes the export header for events.
func Columns(events []model.Event, schema Schema) []string {
	if len(events) == 0 {
		return nil
	}
	if schema == SchemaFirstEvent {
		return fieldNames(events[0].Fields())
	}
	var cols []string
	seen := map[string]struct{}{}
	for _, e := range events {
		for _, f := range e.Fields() {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// EncodeCSV writes one header line and one row per event, in log order. Every
// cell is a JSON literal so embedded commas and quotes survive; absent fields
// are written as "".
func EncodeCSV(w io.Writer, events []model.Event, schema Schema) error {
	cols := Columns(events, schema)
	lines := make([]string, 0, len(events)+1)
	lines = append(lines, strings.Join(cols, ","))
	for i, e := range events {
		values := map[string]any{}
		for _, f := range e.Fields() {
			values[f.Name] = f.Value
		}
		cells := make([]string, len(cols))
		for j, col := range cols {
			v, ok := values[col]
			if !ok {
				v = ""
			}
			cell, err := encodeCell(v)
			if err != nil {
				return fmt.Errorf("failed to encode row %d column %s: %w", i+1, col, err)
			}
			cells[j] = cell
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func encodeCell(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func fieldNames(fields []model.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
