package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/takak2166/backpack2keepassx/internal/keepassx"
	"github.com/takak2166/backpack2keepassx/internal/locator"
	"github.com/takak2166/backpack2keepassx/internal/logger"
	"github.com/takak2166/backpack2keepassx/internal/models"
	"github.com/takak2166/backpack2keepassx/internal/parser"
)

// DefaultNotePattern selects the note holding the access table
const DefaultNotePattern = "access"

// MissingPolicy decides what happens when a page or its note cannot be found
type MissingPolicy int

const (
	// PolicyAbort fails the whole export
	PolicyAbort MissingPolicy = iota
	// PolicySkip leaves the group out of the document
	PolicySkip
)

// Options configures an Exporter
type Options struct {
	NotePattern string
	Policy      MissingPolicy
	Concurrency int // Groups fetched at once; values below 1 mean 1
	Indent      int
}

// Exporter turns page requests into a KeePassX document
type Exporter struct {
	locator *locator.Locator
	opts    Options
}

// New creates an Exporter reading pages through the given locator
func New(l *locator.Locator, opts Options) *Exporter {
	if opts.NotePattern == "" {
		opts.NotePattern = DefaultNotePattern
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Exporter{locator: l, opts: opts}
}

// Export builds one group per request. Groups keep the request order.
func (e *Exporter) Export(ctx context.Context, requests []models.PageRequest) ([]models.Group, error) {
	results := make([]*models.Group, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			group, err := e.buildGroup(ctx, req)
			if err != nil {
				if e.opts.Policy == PolicySkip && errors.Is(err, locator.ErrNotFound) {
					logger.Warn("Skipping group", map[string]interface{}{
						"pattern": req.Pattern,
						"reason":  err.Error(),
					})
					return nil
				}
				return fmt.Errorf("failed to export %q: %w", req.Pattern, err)
			}
			results[i] = group
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groups := make([]models.Group, 0, len(results))
	for _, group := range results {
		if group != nil {
			groups = append(groups, *group)
		}
	}
	return groups, nil
}

// Run exports the requests and writes the document to w
func (e *Exporter) Run(ctx context.Context, requests []models.PageRequest, w io.Writer) error {
	groups, err := e.Export(ctx, requests)
	if err != nil {
		return err
	}

	doc, err := keepassx.RenderDatabase(groups, e.opts.Indent)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, doc); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	entries := 0
	for _, group := range groups {
		entries += len(group.Entries)
	}
	logger.Info("Export completed", map[string]interface{}{
		"requested": len(requests),
		"groups":    len(groups),
		"entries":   entries,
	})
	return nil
}

func (e *Exporter) buildGroup(ctx context.Context, req models.PageRequest) (*models.Group, error) {
	page, err := e.locator.FindPage(ctx, req.Pattern)
	if err != nil {
		return nil, err
	}

	note, err := e.locator.FindNote(page, e.opts.NotePattern)
	if err != nil {
		return nil, err
	}

	table := parser.ExtractTable(note.Content)
	group := keepassx.NewGroup(page.Title, req.Icon, note, table)
	logger.Debug("Built group", map[string]interface{}{
		"page":    page.Title,
		"entries": len(group.Entries),
	})
	return &group, nil
}
