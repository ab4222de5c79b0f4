// Package csvtext decodes the CSV text served by spreadsheet publish-to-web
// endpoints.
//
// The exports these endpoints produce are not strict RFC 4180: headers carry
// inconsistent casing and blank names, rows are ragged, and a trailing
// newline leaves a dangling empty record. The stdlib encoding/csv reader
// rejects exactly the inputs we need to accept, so decoding is a single
// left-to-right scan with a quote flag, tolerant by construction: a doubled
// quote inside a quoted field decodes to one literal quote, commas and
// newlines separate fields and records only outside quotes, carriage returns
// outside quotes are dropped, and an unterminated quote at end of input is
// kept as literal text.
package csvtext

import (
	"strconv"
	"strings"
)

// Record is one decoded row, keyed by header name.
type Record map[string]string

// Table is an ordered decode result. Columns preserves the header order
// (with synthesized names for blank header cells) so callers can render or
// re-encode rows with full fidelity.
type Table struct {
	Columns []string
	Rows    []Record
}

// Decode parses raw CSV text into a Table. The first non-blank row supplies
// the field names; rows whose fields are all blank are dropped. A row
// shorter than the header is padded with empty strings, a longer one is
// truncated. A blank header cell at position N is named "col<N>".
func Decode(text string) Table {
	text = strings.TrimPrefix(text, "\ufeff")

	var (
		rows     [][]string
		row      []string
		field    []byte
		inQuotes bool
	)

	endField := func() {
		row = append(row, string(field))
		field = field[:0]
	}
	endRow := func() {
		if rowHasContent(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field = append(field, '"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				field = append(field, c)
			}
			continue
		}
		switch c {
		case '"':
			inQuotes = true
		case ',':
			endField()
		case '\n':
			endField()
			endRow()
		case '\r':
			// dropped outside quotes
		default:
			field = append(field, c)
		}
	}
	if len(field) > 0 || len(row) > 0 {
		endField()
		endRow()
	}

	if len(rows) == 0 {
		return Table{}
	}

	columns := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "col" + strconv.Itoa(i)
		}
		columns[i] = name
	}

	out := make([]Record, 0, len(rows)-1)
	for _, r := range rows[1:] {
		rec := make(Record, len(columns))
		for c, name := range columns {
			if c < len(r) {
				rec[name] = r[c]
			} else {
				rec[name] = ""
			}
		}
		out = append(out, rec)
	}

	return Table{Columns: columns, Rows: out}
}

// Encode renders columns and rows back to CSV text. Fields containing a
// comma, quote, or line break are quoted with doubled inner quotes. Used by
// the snapshot store and by round-trip tests; it is not a general-purpose
// CSV writer.
func Encode(columns []string, rows []Record) string {
	var b strings.Builder
	writeRow := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteField(f))
		}
		b.WriteByte('\n')
	}

	writeRow(columns)
	fields := make([]string, len(columns))
	for _, rec := range rows {
		for i, name := range columns {
			fields[i] = rec[name]
		}
		writeRow(fields)
	}
	return b.String()
}

func quoteField(f string) string {
	if !strings.ContainsAny(f, ",\"\n\r") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

func rowHasContent(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
