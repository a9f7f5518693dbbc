package notion

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/takak2166/backpack2keepassx/internal/logger"
	"github.com/takak2166/backpack2keepassx/internal/models"
)

// CreatedAtLayout matches the timestamps the Backpack API reports
const CreatedAtLayout = "2006-01-02 15:04:05"

const pageSize = 100

// Client reads pages from a Notion workspace. Every heading on a page starts
// a note; the blocks below it, up to the next heading, are the note content.
type Client struct {
	client NotionClient
}

// New creates a new Notion client
func New() (*Client, error) {
	apiKey := os.Getenv("NOTION_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("NOTION_API_KEY is not set")
	}

	notionClient := notionapi.NewClient(notionapi.Token(apiKey))
	return &Client{
		client: newNotionClientAdapter(notionClient),
	}, nil
}

// NewWithClient creates a client on top of an existing service implementation
func NewWithClient(client NotionClient) *Client {
	return &Client{client: client}
}

// ListPages returns the ID and title of every page shared with the integration
func (c *Client) ListPages(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	var cursor notionapi.Cursor

	for {
		query := &notionapi.SearchRequest{
			Filter: notionapi.SearchFilter{
				Property: "object",
				Value:    "page",
			},
			StartCursor: cursor,
			PageSize:    pageSize,
		}

		results, err := c.client.Search().Do(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to search pages: %w", err)
		}

		for _, result := range results.Results {
			if page, ok := result.(*notionapi.Page); ok {
				pages = append(pages, models.Page{
					ID:    string(page.ID),
					Title: pageTitle(page),
				})
			}
		}

		if !results.HasMore || results.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(results.NextCursor)
	}

	logger.Debug("Listed Notion pages", map[string]interface{}{
		"pages_count": len(pages),
	})
	return pages, nil
}

// GetPage returns the page with its title and the notes read from its blocks
func (c *Client) GetPage(ctx context.Context, id string) (*models.Page, error) {
	p, err := c.client.Page().Get(ctx, notionapi.PageID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %s: %w", id, err)
	}

	blocks, err := c.children(ctx, notionapi.BlockID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blocks of page %s: %w", id, err)
	}

	page := &models.Page{ID: id, Title: pageTitle(p)}
	var note *models.Note
	var lines []string

	flush := func() {
		if note != nil {
			note.Content = strings.Join(lines, "\n")
			page.Notes = append(page.Notes, *note)
		}
		lines = nil
	}

	for _, block := range blocks {
		if title, created, ok := heading(block); ok {
			flush()
			note = &models.Note{Title: title, CreatedAt: created}
			continue
		}
		if note == nil {
			// Blocks above the first heading belong to no note
			continue
		}

		if table, ok := block.(*notionapi.TableBlock); ok {
			rows, err := c.tableLines(ctx, table)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch table on page %s: %w", id, err)
			}
			lines = append(lines, rows...)
			continue
		}
		if text, ok := blockText(block); ok {
			lines = append(lines, text)
		}
	}
	flush()

	return page, nil
}

// children returns every child block of id, following pagination cursors
func (c *Client) children(ctx context.Context, id notionapi.BlockID) ([]notionapi.Block, error) {
	var blocks []notionapi.Block
	pagination := &notionapi.Pagination{PageSize: pageSize}

	for {
		resp, err := c.client.Block().GetChildren(ctx, id, pagination)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return blocks, nil
		}
		pagination = &notionapi.Pagination{
			StartCursor: notionapi.Cursor(resp.NextCursor),
			PageSize:    pageSize,
		}
	}
}

// tableLines renders a Notion table as Textile table rows
func (c *Client) tableLines(ctx context.Context, table *notionapi.TableBlock) ([]string, error) {
	rows, err := c.children(ctx, table.ID)
	if err != nil {
		return nil, err
	}

	var lines []string
	for i, block := range rows {
		row, ok := block.(*notionapi.TableRowBlock)
		if !ok {
			continue
		}
		header := i == 0 && table.Table.HasColumnHeader

		var sb strings.Builder
		sb.WriteString("|")
		for _, cell := range row.TableRow.Cells {
			if header {
				sb.WriteString("_.")
			}
			sb.WriteString(plainText(cell))
			sb.WriteString("|")
		}
		lines = append(lines, sb.String())
	}
	return lines, nil
}

func heading(block notionapi.Block) (title, created string, ok bool) {
	switch b := block.(type) {
	case *notionapi.Heading1Block:
		return plainText(b.Heading1.RichText), createdAt(b.CreatedTime), true
	case *notionapi.Heading2Block:
		return plainText(b.Heading2.RichText), createdAt(b.CreatedTime), true
	case *notionapi.Heading3Block:
		return plainText(b.Heading3.RichText), createdAt(b.CreatedTime), true
	}
	return "", "", false
}

func blockText(block notionapi.Block) (string, bool) {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return plainText(b.Paragraph.RichText), true
	case *notionapi.CodeBlock:
		return plainText(b.Code.RichText), true
	case *notionapi.BulletedListItemBlock:
		return plainText(b.BulletedListItem.RichText), true
	case *notionapi.NumberedListItemBlock:
		return plainText(b.NumberedListItem.RichText), true
	}
	return "", false
}

func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		switch p := prop.(type) {
		case *notionapi.TitleProperty:
			return plainText(p.Title)
		case notionapi.TitleProperty:
			return plainText(p.Title)
		}
	}
	return ""
}

func plainText(rich []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rich {
		switch {
		case rt.PlainText != "":
			sb.WriteString(rt.PlainText)
		case rt.Text != nil:
			sb.WriteString(rt.Text.Content)
		}
	}
	return sb.String()
}

func createdAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(CreatedAtLayout)
}
