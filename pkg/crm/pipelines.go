package crm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Pipeline is a sales pipeline.
type Pipeline struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
	OrderNr int    `json:"order_nr"`
	AddTime string `json:"add_time"`
}

// Stage is one step of a pipeline.
type Stage struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	PipelineID      int    `json:"pipeline_id"`
	PipelineName    string `json:"pipeline_name,omitempty"`
	OrderNr         int    `json:"order_nr"`
	DealProbability int    `json:"deal_probability,omitempty"`
}

// PipelinesService accesses the /pipelines resource group.
type PipelinesService struct {
	core *core
}

// List returns every pipeline of the tenant.
func (s *PipelinesService) List(ctx context.Context) ([]Pipeline, error) {
	var pipelines []Pipeline
	if _, err := s.core.get(ctx, "/pipelines", nil, &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// Get fetches a single pipeline by id.
func (s *PipelinesService) Get(ctx context.Context, id int) (*Pipeline, error) {
	var pipeline Pipeline
	if _, err := s.core.get(ctx, fmt.Sprintf("/pipelines/%d", id), nil, &pipeline); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// StagesService accesses the /stages resource group.
type StagesService struct {
	core *core
}

// List returns stages, optionally filtered to one pipeline (pipelineID > 0).
func (s *StagesService) List(ctx context.Context, pipelineID int) ([]Stage, error) {
	q := url.Values{}
	if pipelineID > 0 {
		q.Set("pipeline_id", strconv.Itoa(pipelineID))
	}
	var stages []Stage
	if _, err := s.core.get(ctx, "/stages", q, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}
