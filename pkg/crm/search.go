package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// SearchItem is one hit from a search endpoint. Item is the matched record in
// its native shape; Type identifies the resource group it belongs to.
type SearchItem struct {
	ResultScore float64         `json:"result_score"`
	Type        string          `json:"type,omitempty"`
	Item        json.RawMessage `json:"item"`
}

// searchResults is the data payload shared by /itemSearch and the per-resource
// search endpoints.
type searchResults struct {
	Items []SearchItem `json:"items"`
}

// SearchService accesses the cross-resource /itemSearch endpoint.
type SearchService struct {
	core *core
}

// All searches deals, persons, and organizations at once.
func (s *SearchService) All(ctx context.Context, term string, opts *ListOptions) ([]SearchItem, error) {
	return searchResource(ctx, s.core, "/itemSearch", term, opts)
}

func searchResource(ctx context.Context, c *core, path, term string, opts *ListOptions) ([]SearchItem, error) {
	if term == "" {
		return nil, fmt.Errorf("crm: search term is required")
	}
	q := url.Values{}
	q.Set("term", term)
	opts.apply(q)
	var results searchResults
	if _, err := c.get(ctx, path, q, &results); err != nil {
		return nil, err
	}
	return results.Items, nil
}
