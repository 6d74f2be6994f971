package crm

import (
	"context"
	"net/url"
	"strconv"
)

// Note is a free-form note attached to a deal, person, or organization.
type Note struct {
	ID       int    `json:"id"`
	Content  string `json:"content"`
	DealID   int    `json:"deal_id,omitempty"`
	PersonID int    `json:"person_id,omitempty"`
	OrgID    int    `json:"org_id,omitempty"`
	AddTime  string `json:"add_time"`
}

// NoteFilter narrows a note listing to one parent record. Zero values are
// ignored.
type NoteFilter struct {
	DealID   int
	PersonID int
	OrgID    int
}

// NotesService accesses the /notes resource group.
type NotesService struct {
	core *core
}

// List returns notes, optionally filtered and paginated.
func (s *NotesService) List(ctx context.Context, filter *NoteFilter, opts *ListOptions) ([]Note, *AdditionalData, error) {
	q := url.Values{}
	if filter != nil {
		if filter.DealID > 0 {
			q.Set("deal_id", strconv.Itoa(filter.DealID))
		}
		if filter.PersonID > 0 {
			q.Set("person_id", strconv.Itoa(filter.PersonID))
		}
		if filter.OrgID > 0 {
			q.Set("org_id", strconv.Itoa(filter.OrgID))
		}
	}
	opts.apply(q)
	var notes []Note
	meta, err := s.core.get(ctx, "/notes", q, &notes)
	if err != nil {
		return nil, nil, err
	}
	return notes, meta, nil
}
