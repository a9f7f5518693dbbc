package keepassx

import (
	"bytes"
	"encoding/xml"
	"regexp"

	"github.com/takak2166/backpack2keepassx/internal/models"
	"github.com/takak2166/backpack2keepassx/internal/parser"
)

// Columns mapped onto dedicated entry fields. Every other named column ends up in the comment.
const (
	ColumnName     = "Name"
	ColumnUsername = "Username"
	ColumnPassword = "Password"
	ColumnURL      = "URL"
)

// LineBreak separates comment lines in KeePassX XML
const LineBreak = "<br/>"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Timestamp converts a service timestamp such as "2009-01-01 12:00:00" into
// the KeePassX form "2009-01-01T12:00:00"
func Timestamp(createdAt string) string {
	return whitespaceRun.ReplaceAllString(createdAt, "T")
}

// CommentHeaders returns the named headers that are not mapped to entry fields.
// A header left empty by marker cleanup is still a comment header.
func CommentHeaders(headers []string) []string {
	var out []string
	for _, h := range headers {
		switch h {
		case ColumnName, ColumnUsername, ColumnPassword, ColumnURL:
			continue
		}
		out = append(out, h)
	}
	return out
}

// RenderComment writes "Header: value<br/>" for every comment header, in order
func RenderComment(row parser.Row, headers []string) string {
	var buf bytes.Buffer
	for _, h := range headers {
		// EscapeText only fails when the writer does
		_ = xml.EscapeText(&buf, []byte(h))
		buf.WriteString(": ")
		_ = xml.EscapeText(&buf, []byte(row.Get(h)))
		buf.WriteString(LineBreak)
	}
	return buf.String()
}

// NewEntry maps a table row onto a KeePassX entry
func NewEntry(row parser.Row, commentHeaders []string, timestamp string) models.Entry {
	return models.Entry{
		Title:      row.Get(ColumnName),
		Username:   row.Get(ColumnUsername),
		Password:   row.Get(ColumnPassword),
		URL:        row.Get(ColumnURL),
		Comment:    models.Comment{Inner: RenderComment(row, commentHeaders)},
		Icon:       models.EntryIcon,
		Creation:   timestamp,
		LastAccess: timestamp,
		LastMod:    timestamp,
		Expire:     models.NeverExpires,
	}
}

// NewGroup builds the group for one page: one entry per data row of the
// access note's table. The header row never becomes an entry.
func NewGroup(title string, icon int, note *models.Note, table *parser.Table) models.Group {
	group := models.Group{
		Title: title,
		Icon:  icon,
	}
	if note == nil || table == nil {
		return group
	}

	timestamp := Timestamp(note.CreatedAt)
	headers := CommentHeaders(table.NamedHeaders())
	for _, row := range table.Rows {
		group.Entries = append(group.Entries, NewEntry(row, headers, timestamp))
	}
	return group
}
