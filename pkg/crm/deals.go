package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Deal is a sales deal as returned by the upstream API. Fields the catalog
// does not reshape are preserved in Raw for callers that need them.
type Deal struct {
	ID         int             `json:"id"`
	Title      string          `json:"title"`
	Value      float64         `json:"value"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	StageID    int             `json:"stage_id"`
	PipelineID int             `json:"pipeline_id"`
	AddTime    string          `json:"add_time"`
	UpdateTime string          `json:"update_time"`
	PersonName string          `json:"person_name,omitempty"`
	OrgName    string          `json:"org_name,omitempty"`
	OwnerName  string          `json:"owner_name,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

func (d *Deal) UnmarshalJSON(data []byte) error {
	type alias Deal
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*d = Deal(a)
	d.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// DealsService accesses the /deals resource group.
type DealsService struct {
	core *core
}

// List returns a window of the tenant's deals.
func (s *DealsService) List(ctx context.Context, opts *ListOptions) ([]Deal, *AdditionalData, error) {
	q := url.Values{}
	opts.apply(q)
	var deals []Deal
	meta, err := s.core.get(ctx, "/deals", q, &deals)
	if err != nil {
		return nil, nil, err
	}
	return deals, meta, nil
}

// Get fetches a single deal by id.
func (s *DealsService) Get(ctx context.Context, id int) (*Deal, error) {
	var deal Deal
	if _, err := s.core.get(ctx, fmt.Sprintf("/deals/%d", id), nil, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// Search finds deals matching term.
func (s *DealsService) Search(ctx context.Context, term string, opts *ListOptions) ([]SearchItem, error) {
	return searchResource(ctx, s.core, "/deals/search", term, opts)
}
