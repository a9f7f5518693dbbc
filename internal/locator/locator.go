package locator

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/takak2166/backpack2keepassx/internal/logger"
	"github.com/takak2166/backpack2keepassx/internal/models"
)

// ErrNotFound is matched by every NotFoundError
var ErrNotFound = errors.New("lookup failed")

// NotFoundError reports a page or note title pattern that matched nothing
type NotFoundError struct {
	Kind    string // "page" or "note"
	Pattern string
	Page    string // Set for note lookups
}

func (e *NotFoundError) Error() string {
	if e.Page != "" {
		return fmt.Sprintf("lookup failed: %s title pattern %q matched nothing in page %q", e.Kind, e.Pattern, e.Page)
	}
	return fmt.Sprintf("lookup failed: %s title pattern %q matched nothing", e.Kind, e.Pattern)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PageSource is the notes service the locator reads from
type PageSource interface {
	// ListPages returns every page with its ID and title only
	ListPages(ctx context.Context) ([]models.Page, error)
	// GetPage returns the full page including its notes
	GetPage(ctx context.Context, id string) (*models.Page, error)
}

// Locator finds pages and notes in a PageSource
type Locator struct {
	source          PageSource
	caseInsensitive bool
}

// New creates a Locator that matches titles case-insensitively
func New(source PageSource) *Locator {
	return &Locator{source: source, caseInsensitive: true}
}

// WithCaseSensitive returns a copy of the locator that matches titles exactly as written
func (l *Locator) WithCaseSensitive() *Locator {
	return &Locator{source: l.source}
}

// FindPage returns the fully fetched first page whose title matches pattern
func (l *Locator) FindPage(ctx context.Context, pattern string) (*models.Page, error) {
	pages, err := l.source.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	match, err := MatchPage(pages, pattern, l.caseInsensitive)
	if err != nil {
		return nil, err
	}

	logger.Debug("Matched page", map[string]interface{}{
		"pattern": pattern,
		"page":    match.Title,
		"id":      match.ID,
	})

	page, err := l.source.GetPage(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %q: %w", match.Title, err)
	}
	// Sources that only return content keep the title from the listing
	if page.Title == "" {
		page.Title = match.Title
	}
	return page, nil
}

// FindNote returns the first note in page whose title matches pattern
func (l *Locator) FindNote(page *models.Page, pattern string) (*models.Note, error) {
	return FindNote(page, pattern, l.caseInsensitive)
}

// MatchPage returns the first page in input order whose title matches pattern
func MatchPage(pages []models.Page, pattern string, caseInsensitive bool) (*models.Page, error) {
	re, err := compile(pattern, caseInsensitive)
	if err != nil {
		return nil, err
	}

	for i := range pages {
		if re.MatchString(pages[i].Title) {
			return &pages[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "page", Pattern: pattern}
}

// FindNote returns the first note in page whose title matches pattern
func FindNote(page *models.Page, pattern string, caseInsensitive bool) (*models.Note, error) {
	if page == nil {
		return nil, &NotFoundError{Kind: "note", Pattern: pattern}
	}

	re, err := compile(pattern, caseInsensitive)
	if err != nil {
		return nil, err
	}

	for i := range page.Notes {
		if re.MatchString(page.Notes[i].Title) {
			return &page.Notes[i], nil
		}
	}
	return nil, &NotFoundError{Kind: "note", Pattern: pattern, Page: page.Title}
}

func compile(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid title pattern: %w", err)
	}
	return re, nil
}
