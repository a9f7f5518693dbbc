package notion

import (
	"github.com/jomei/notionapi"
)

type notionClientAdapter struct {
	client *notionapi.Client
}

func newNotionClientAdapter(client *notionapi.Client) NotionClient {
	return &notionClientAdapter{client: client}
}

func (a *notionClientAdapter) Search() SearchService {
	return a.client.Search
}

func (a *notionClientAdapter) Block() BlockService {
	return a.client.Block
}

func (a *notionClientAdapter) Page() PageService {
	return a.client.Page
}
