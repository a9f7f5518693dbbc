package keepassx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/takak2166/backpack2keepassx/internal/models"
)

// DocumentType is the DOCTYPE name KeePassX expects on import
const DocumentType = "KEEPASSX_DATABASE"

// RenderGroup returns the <group> fragment for a single group
func RenderGroup(group models.Group) (string, error) {
	data, err := xml.Marshal(group)
	if err != nil {
		return "", fmt.Errorf("failed to render group %q: %w", group.Title, err)
	}
	return string(data), nil
}

// RenderDatabase returns a complete KeePassX XML document. With indent 0 the
// document is written without any whitespace between elements.
func RenderDatabase(groups []models.Group, indent int) (string, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if indent > 0 {
		enc.Indent("", strings.Repeat(" ", indent))
	}

	if err := enc.EncodeToken(xml.Directive("DOCTYPE " + DocumentType)); err != nil {
		return "", fmt.Errorf("failed to write doctype: %w", err)
	}
	if err := enc.Encode(models.Database{Groups: groups}); err != nil {
		return "", fmt.Errorf("failed to render database: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("failed to render database: %w", err)
	}

	return buf.String(), nil
}
