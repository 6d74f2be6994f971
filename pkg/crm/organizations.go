package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Organization is a company record.
type Organization struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Address     string          `json:"address,omitempty"`
	OwnerName   string          `json:"owner_name,omitempty"`
	PeopleCount int             `json:"people_count,omitempty"`
	AddTime     string          `json:"add_time"`
	UpdateTime  string          `json:"update_time"`
	Raw         json.RawMessage `json:"-"`
}

func (o *Organization) UnmarshalJSON(data []byte) error {
	type alias Organization
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*o = Organization(a)
	o.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// OrganizationsService accesses the /organizations resource group.
type OrganizationsService struct {
	core *core
}

// List returns a window of the tenant's organizations.
func (s *OrganizationsService) List(ctx context.Context, opts *ListOptions) ([]Organization, *AdditionalData, error) {
	q := url.Values{}
	opts.apply(q)
	var orgs []Organization
	meta, err := s.core.get(ctx, "/organizations", q, &orgs)
	if err != nil {
		return nil, nil, err
	}
	return orgs, meta, nil
}

// Get fetches a single organization by id.
func (s *OrganizationsService) Get(ctx context.Context, id int) (*Organization, error) {
	var org Organization
	if _, err := s.core.get(ctx, fmt.Sprintf("/organizations/%d", id), nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Search finds organizations matching term.
func (s *OrganizationsService) Search(ctx context.Context, term string, opts *ListOptions) ([]SearchItem, error) {
	return searchResource(ctx, s.core, "/organizations/search", term, opts)
}
