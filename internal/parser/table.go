package parser

import (
	"regexp"
	"strings"

	"github.com/takak2166/backpack2keepassx/internal/logger"
)

// ColumnSeparator separates cells in a Textile table row
const ColumnSeparator = '|'

// headerMarker is the Textile prefix that turns a cell into a table header
const headerMarker = "_."

var tableLine = regexp.MustCompile(`^\s*(\|.*\|)\s*$`)

// Header names a table column. An empty header cell gives an unnamed column;
// a cell that only becomes empty after cleanup is still named.
type Header struct {
	Name  string
	Named bool
}

// Table is a pipe table extracted from note content
type Table struct {
	Headers []Header
	// HeaderRow is the first record as it appeared in the content
	HeaderRow Row
	Rows      []Row
}

// Row is a single record aligned positionally to the table headers
type Row struct {
	headers []Header
	cells   []string
}

// Get returns the first cell under the named header, or "" if there is none
func (r Row) Get(name string) string {
	for i, h := range r.headers {
		if h.Named && h.Name == name {
			return r.At(i)
		}
	}
	return ""
}

// At returns the cell at position i, including cells beyond the header count
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// Len returns the number of cells in the row
func (r Row) Len() int {
	return len(r.cells)
}

// Cells returns a copy of the row's cells
func (r Row) Cells() []string {
	return append([]string(nil), r.cells...)
}

// NamedHeaders returns the names of the named columns, in column order
func (t *Table) NamedHeaders() []string {
	var named []string
	for _, h := range t.Headers {
		if h.Named {
			named = append(named, h.Name)
		}
	}
	return named
}

// ExtractTableLines returns the pipe-delimited lines found in content, trimmed
// of surrounding whitespace. All other lines are dropped.
func ExtractTableLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if m := tableLine.FindStringSubmatch(line); m != nil {
			lines = append(lines, m[1])
		}
	}
	return lines
}

// ParseTable splits each line of block on sep. The first line becomes the
// header row and every following line a data row. Header names are used
// verbatim. Quote characters have no special meaning.
func ParseTable(block string, sep rune) *Table {
	table := &Table{}
	if block == "" {
		return table
	}

	for i, line := range strings.Split(block, "\n") {
		cells := strings.Split(line, string(sep))
		if i == 0 {
			table.Headers = make([]Header, len(cells))
			for j, cell := range cells {
				table.Headers[j] = Header{Name: cell, Named: cell != ""}
			}
			table.HeaderRow = Row{headers: table.Headers, cells: cells}
			continue
		}
		table.Rows = append(table.Rows, Row{headers: table.Headers, cells: cells})
	}

	return table
}

// ExtractTable finds the Textile table embedded in note content and parses it.
// Header markers ("_.") are stripped from every named header.
func ExtractTable(content string) *Table {
	lines := ExtractTableLines(content)
	logger.Debug("Extracted table lines", map[string]interface{}{
		"lines": len(lines),
	})

	table := ParseTable(strings.Join(lines, "\n"), ColumnSeparator)
	// Rows share the header slice, so they pick up the cleaned names
	for i := range table.Headers {
		table.Headers[i].Name = CleanHeader(table.Headers[i].Name)
	}
	return table
}

// CleanHeader removes the Textile header marker wherever it occurs
func CleanHeader(h string) string {
	return strings.ReplaceAll(h, headerMarker, "")
}
