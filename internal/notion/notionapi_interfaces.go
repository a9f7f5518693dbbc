package notion

import (
	"context"

	"github.com/jomei/notionapi"
)

//go:generate mockgen -source=notionapi_interfaces.go -destination=mock_notion/mock_notionapi.go -package=mock_notion
type (
	SearchService interface {
		Do(context.Context, *notionapi.SearchRequest) (*notionapi.SearchResponse, error)
	}

	BlockService interface {
		GetChildren(context.Context, notionapi.BlockID, *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
	}

	PageService interface {
		Get(context.Context, notionapi.PageID) (*notionapi.Page, error)
	}
)
