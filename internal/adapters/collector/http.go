package collector

import (
	"context"
	"net/url"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
)

// HTTPReference reads projections from GET /projections?sport=&position=.
//
// Response body: {"players": [PlayerRecord...]}.
type HTTPReference struct {
	client *Client
}

// NewHTTPReference creates an HTTPReference over client.
func NewHTTPReference(client *Client) *HTTPReference {
	return &HTTPReference{client: client}
}

type projectionsResponse struct {
	Players []model.PlayerRecord `json:"players"`
}

// Projections implements ReferenceProvider.
func (h *HTTPReference) Projections(ctx context.Context, sport model.Sport, position string) ([]model.PlayerRecord, error) {
	var resp projectionsResponse
	q := url.Values{"sport": {string(sport)}, "position": {position}}
	if err := h.client.GetJSON(ctx, "/projections", q, &resp); err != nil {
		return nil, err
	}
	return resp.Players, nil
}

// HTTPSearch runs searches with GET /search?q=&sport=&category=, passing the
// sport's free source directory as repeated site parameters.
//
// Response body: {"results": [SearchResult...]}.
type HTTPSearch struct {
	client *Client
}

// NewHTTPSearch creates an HTTPSearch over client.
func NewHTTPSearch(client *Client) *HTTPSearch {
	return &HTTPSearch{client: client}
}

type searchResponse struct {
	Results []model.SearchResult `json:"results"`
}

// Search implements SearchProvider.
func (h *HTTPSearch) Search(ctx context.Context, sport model.Sport, query catalog.Query) ([]model.SearchResult, error) {
	var resp searchResponse
	q := url.Values{
		"q":        {query.Text},
		"sport":    {string(sport)},
		"category": {string(query.Category)},
	}
	for _, s := range catalog.Sources(sport) {
		q.Add("site", s)
	}
	if err := h.client.GetJSON(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
