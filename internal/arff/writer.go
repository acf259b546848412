/*
Package arff serializes feature tables.

Two formats are supported:
  - arff: the attribute-relation format read by WEKA (@RELATION, typed
    @ATTRIBUTE declarations, @DATA rows)
  - csv: a plain header row of attribute names followed by the same rows

Both formats take their attribute order from a single features.Schema, so
the declared attributes and every row always line up.
*/
package arff

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/khanglvm/forkfeat/internal/features"
)

// Format names an output format.
type Format string

const (
	FormatARFF Format = "arff"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatARFF, "":
		return FormatARFF, nil
	case FormatCSV, "txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want arff or csv)", s)
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Table is a schema with its rendered rows.
type Table struct {
	Schema *features.Schema
	// Comments are written at the top of ARFF output as % lines.
	Comments []string
	Rows     [][]string
}

// NewTable renders every record through schema.
func NewTable(schema *features.Schema, records []features.Record) (*Table, error) {
	t := &Table{Schema: schema, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		row, err := schema.Row(r.Counts, r.Label)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Event, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write serializes t in format f.
func Write(w io.Writer, t *Table, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	default:
		return WriteARFF(w, t)
	}
}

// WriteHeader writes only the ARFF header of schema, up to and including @DATA.
func WriteHeader(w io.Writer, schema *features.Schema, comments ...string) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, schema, comments)
	return bw.Flush()
}

// WriteARFF writes t as an ARFF document.
func WriteARFF(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, t.Schema, t.Comments)

	width := len(t.Schema.Columns) + 1
	for i, row := range t.Rows {
		if len(row) != width {
			return fmt.Errorf("row %d has %d values, schema declares %d", i, len(row), width)
		}
		bw.WriteString(strings.Join(row, ","))
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func writeHeader(bw *bufio.Writer, schema *features.Schema, comments []string) {
	for _, c := range comments {
		fmt.Fprintf(bw, "%% %s\n", c)
	}
	if len(comments) > 0 {
		bw.WriteByte('\n')
	}

	fmt.Fprintf(bw, "@RELATION %s\n\n", schema.Relation)

	// A blank line separates each expansion stage, as in hand-written headers.
	prev := ""
	for _, c := range schema.Columns {
		group := stageOf(c.Name)
		if prev != "" && group != prev {
			bw.WriteByte('\n')
		}
		prev = group
		fmt.Fprintf(bw, "@ATTRIBUTE %s %s\n", c.Name, c.Domain)
	}
	bw.WriteByte('\n')

	fmt.Fprintf(bw, "@ATTRIBUTE %s %s\n\n", schema.Class.Name, schema.Class.Domain)
	bw.WriteString("@DATA\n")
}

func stageOf(name string) string {
	switch {
	case strings.HasPrefix(name, "category__"):
		return "category"
	case strings.HasPrefix(name, "binary__"):
		return "binary"
	case strings.Contains(name, "-plus-"):
		return "pairwise"
	default:
		return "base"
	}
}

// WriteCSV writes t as CSV with a header row of attribute names.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Schema.Names()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
