package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// ContactValue is a labelled email address or phone number.
type ContactValue struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

// Person is a contact record.
type Person struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Email      []ContactValue  `json:"email,omitempty"`
	Phone      []ContactValue  `json:"phone,omitempty"`
	OrgName    string          `json:"org_name,omitempty"`
	OwnerName  string          `json:"owner_name,omitempty"`
	AddTime    string          `json:"add_time"`
	UpdateTime string          `json:"update_time"`
	Raw        json.RawMessage `json:"-"`
}

func (p *Person) UnmarshalJSON(data []byte) error {
	type alias Person
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Person(a)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// PersonsService accesses the /persons resource group.
type PersonsService struct {
	core *core
}

// List returns a window of the tenant's persons.
func (s *PersonsService) List(ctx context.Context, opts *ListOptions) ([]Person, *AdditionalData, error) {
	q := url.Values{}
	opts.apply(q)
	var persons []Person
	meta, err := s.core.get(ctx, "/persons", q, &persons)
	if err != nil {
		return nil, nil, err
	}
	return persons, meta, nil
}

// Get fetches a single person by id.
func (s *PersonsService) Get(ctx context.Context, id int) (*Person, error) {
	var person Person
	if _, err := s.core.get(ctx, fmt.Sprintf("/persons/%d", id), nil, &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// Search finds persons matching term.
func (s *PersonsService) Search(ctx context.Context, term string, opts *ListOptions) ([]SearchItem, error) {
	return searchResource(ctx, s.core, "/persons/search", term, opts)
}
