package notion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jomei/notionapi"
	"github.com/takak2166/backpack2keepassx/internal/notion"
	"github.com/takak2166/backpack2keepassx/internal/notion/mock_notion"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Text: &notionapi.Text{
				Content: s,
			},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectError bool
	}{
		{
			name: "Valid configuration",
			envVars: map[string]string{
				"NOTION_API_KEY": "test_key",
			},
			expectError: false,
		},
		{
			name:        "Missing API key",
			envVars:     map[string]string{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NOTION_API_KEY", "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			client, err := notion.New()
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if client == nil {
					t.Error("Expected client, got nil")
				}
			}
		})
	}
}

func TestListPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock_notion.NewMockNotionClient(ctrl)
	mockSearch := mock_notion.NewMockSearchService(ctrl)
	mockClient.EXPECT().Search().Return(mockSearch).AnyTimes()

	gomock.InOrder(
		mockSearch.EXPECT().Do(gomock.Any(), gomock.Any()).Return(&notionapi.SearchResponse{
			Results: []notionapi.Object{
				&notionapi.Page{
					Object: "page",
					ID:     "page_groceries",
					Properties: notionapi.Properties{
						"title": notionapi.TitleProperty{Title: richText("Groceries")},
					},
				},
				&notionapi.Database{
					Object: "database",
					ID:     "db_ignored",
				},
			},
			HasMore:    true,
			NextCursor: "cursor_2",
		}, nil),
		mockSearch.EXPECT().Do(gomock.Any(), gomock.Any()).Return(&notionapi.SearchResponse{
			Results: []notionapi.Object{
				&notionapi.Page{
					Object: "page",
					ID:     "page_bank",
					Properties: notionapi.Properties{
						"Name": &notionapi.TitleProperty{Title: richText("Bank")},
					},
				},
			},
		}, nil),
	)

	pages, err := notion.NewWithClient(mockClient).ListPages(context.Background())
	if err != nil {
		t.Fatalf("ListPages() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Title != "Groceries" || pages[1].Title != "Bank" || pages[1].ID != "page_bank" {
		t.Errorf("Unexpected pages: %+v", pages)
	}
}

func TestListPagesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock_notion.NewMockNotionClient(ctrl)
	mockSearch := mock_notion.NewMockSearchService(ctrl)
	mockClient.EXPECT().Search().Return(mockSearch).AnyTimes()
	mockSearch.EXPECT().Do(gomock.Any(), gomock.Any()).Return(nil, errors.New("unauthorized"))

	if _, err := notion.NewWithClient(mockClient).ListPages(context.Background()); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestGetPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock_notion.NewMockNotionClient(ctrl)
	mockBlock := mock_notion.NewMockBlockService(ctrl)
	mockPage := mock_notion.NewMockPageService(ctrl)
	mockClient.EXPECT().Block().Return(mockBlock).AnyTimes()
	mockClient.EXPECT().Page().Return(mockPage).AnyTimes()

	mockPage.EXPECT().Get(gomock.Any(), notionapi.PageID("page_bank")).Return(&notionapi.Page{
		Object: "page",
		ID:     "page_bank",
		Properties: notionapi.Properties{
			"title": notionapi.TitleProperty{Title: richText("Bank")},
		},
	}, nil)

	created := time.Date(2009, 1, 1, 12, 0, 0, 0, time.UTC)
	later := time.Date(2010, 6, 1, 8, 30, 0, 0, time.UTC)

	gomock.InOrder(
		mockBlock.EXPECT().GetChildren(gomock.Any(), notionapi.BlockID("page_bank"), gomock.Any()).Return(&notionapi.GetChildrenResponse{
			Results: []notionapi.Block{
				&notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: richText("Intro without a note")}},
				&notionapi.Heading2Block{
					BasicBlock: notionapi.BasicBlock{ID: "heading_access", CreatedTime: &created},
					Heading2:   notionapi.Heading{RichText: richText("Access")},
				},
				&notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: richText("Online banking")}},
			},
			HasMore:    true,
			NextCursor: "cursor_2",
		}, nil),
		mockBlock.EXPECT().GetChildren(gomock.Any(), notionapi.BlockID("page_bank"), gomock.Any()).Return(&notionapi.GetChildrenResponse{
			Results: []notionapi.Block{
				&notionapi.TableBlock{
					BasicBlock: notionapi.BasicBlock{ID: "table_1", HasChildren: true},
					Table:      notionapi.Table{TableWidth: 3, HasColumnHeader: true},
				},
				&notionapi.Heading3Block{
					BasicBlock: notionapi.BasicBlock{ID: "heading_branches", CreatedTime: &later},
					Heading3:   notionapi.Heading{RichText: richText("Branches")},
				},
				&notionapi.BulletedListItemBlock{BulletedListItem: notionapi.ListItem{RichText: richText("Main street")}},
			},
		}, nil),
	)
	mockBlock.EXPECT().GetChildren(gomock.Any(), notionapi.BlockID("table_1"), gomock.Any()).Return(&notionapi.GetChildrenResponse{
		Results: []notionapi.Block{
			&notionapi.TableRowBlock{TableRow: notionapi.TableRow{Cells: [][]notionapi.RichText{
				richText("Name"), richText("Password"), richText("PIN"),
			}}},
			&notionapi.TableRowBlock{TableRow: notionapi.TableRow{Cells: [][]notionapi.RichText{
				richText("MyBank"), richText("secret"), richText("1234"),
			}}},
		},
	}, nil)

	page, err := notion.NewWithClient(mockClient).GetPage(context.Background(), "page_bank")
	if err != nil {
		t.Fatalf("GetPage() error = %v", err)
	}
	if page.Title != "Bank" || page.ID != "page_bank" {
		t.Errorf("GetPage() = {ID: %q, Title: %q}, want {ID: %q, Title: %q}", page.ID, page.Title, "page_bank", "Bank")
	}
	if len(page.Notes) != 2 {
		t.Fatalf("Expected 2 notes, got %d: %+v", len(page.Notes), page.Notes)
	}

	access := page.Notes[0]
	if access.Title != "Access" || access.CreatedAt != "2009-01-01 12:00:00" {
		t.Errorf("Unexpected note header: %+v", access)
	}
	expected := "Online banking\n|_.Name|_.Password|_.PIN|\n|MyBank|secret|1234|"
	if access.Content != expected {
		t.Errorf("Content = %q, want %q", access.Content, expected)
	}

	if page.Notes[1].Content != "Main street" || page.Notes[1].CreatedAt != "2010-06-01 08:30:00" {
		t.Errorf("Unexpected second note: %+v", page.Notes[1])
	}
}

func TestGetPageError(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(mockPage *mock_notion.MockPageService, mockBlock *mock_notion.MockBlockService)
	}{
		{
			name: "Page lookup fails",
			setupMocks: func(mockPage *mock_notion.MockPageService, mockBlock *mock_notion.MockBlockService) {
				mockPage.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("object_not_found"))
			},
		},
		{
			name: "Block listing fails",
			setupMocks: func(mockPage *mock_notion.MockPageService, mockBlock *mock_notion.MockBlockService) {
				mockPage.EXPECT().Get(gomock.Any(), gomock.Any()).Return(&notionapi.Page{ID: "missing"}, nil)
				mockBlock.EXPECT().GetChildren(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("rate_limited"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockClient := mock_notion.NewMockNotionClient(ctrl)
			mockPage := mock_notion.NewMockPageService(ctrl)
			mockBlock := mock_notion.NewMockBlockService(ctrl)
			mockClient.EXPECT().Page().Return(mockPage).AnyTimes()
			mockClient.EXPECT().Block().Return(mockBlock).AnyTimes()
			tt.setupMocks(mockPage, mockBlock)

			if _, err := notion.NewWithClient(mockClient).GetPage(context.Background(), "missing"); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
