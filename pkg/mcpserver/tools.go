package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/salespipe/crm-mcp-server/pkg/crm"
)

// The tool catalog is deliberately uniform: every handler resolves its
// caller's client set through the session identifier carried by ctx, performs
// one upstream call, and reshapes the payload into a JSON text result.
// Upstream failures are returned as errors so the protocol layer reports them
// as tool-level error results rather than transport failures.

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_deals",
		Description: "List deals in the CRM with optional pagination.",
	}, s.handleListDeals)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_deal",
		Description: "Get a single deal by its numeric ID.",
	}, s.handleGetDeal)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_deals",
		Description: "Search deals by a free-text term.",
	}, s.handleSearchDeals)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_persons",
		Description: "List contact persons with optional pagination.",
	}, s.handleListPersons)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_person",
		Description: "Get a single person by their numeric ID.",
	}, s.handleGetPerson)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_persons",
		Description: "Search persons by a free-text term.",
	}, s.handleSearchPersons)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_organizations",
		Description: "List organizations with optional pagination.",
	}, s.handleListOrganizations)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_organization",
		Description: "Get a single organization by its numeric ID.",
	}, s.handleGetOrganization)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_organizations",
		Description: "Search organizations by a free-text term.",
	}, s.handleSearchOrganizations)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_pipelines",
		Description: "List all sales pipelines.",
	}, s.handleListPipelines)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_pipeline",
		Description: "Get a single pipeline by its numeric ID.",
	}, s.handleGetPipeline)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_stages",
		Description: "List pipeline stages, optionally for one pipeline.",
	}, s.handleListStages)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_users",
		Description: "List the CRM users of the tenant.",
	}, s.handleListUsers)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_current_user",
		Description: "Get the user the session's API token belongs to.",
	}, s.handleGetCurrentUser)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_notes",
		Description: "List notes, optionally filtered to a deal, person, or organization.",
	}, s.handleListNotes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_all",
		Description: "Search deals, persons, and organizations at once.",
	}, s.handleSearchAll)
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("failed to encode result: %v", err)}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

type pageArgs struct {
	Start int `json:"start,omitempty" jsonschema:"pagination offset of the first item"`
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of items to return"`
}

func (a pageArgs) options() *crm.ListOptions {
	return &crm.ListOptions{Start: a.Start, Limit: a.Limit}
}

type idArgs struct {
	ID int `json:"id" jsonschema:"numeric ID of the record"`
}

type searchArgs struct {
	Term  string `json:"term" jsonschema:"free-text search term"`
	Start int    `json:"start,omitempty" jsonschema:"pagination offset of the first item"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of items to return"`
}

type listPage[T any] struct {
	Items      []T             `json:"items"`
	Pagination *crm.Pagination `json:"pagination,omitempty"`
}

func page[T any](items []T, meta *crm.AdditionalData) listPage[T] {
	p := listPage[T]{Items: items}
	if items == nil {
		p.Items = []T{}
	}
	if meta != nil {
		p.Pagination = meta.Pagination
	}
	return p
}

func (s *Server) handleListDeals(ctx context.Context, _ *mcp.CallToolRequest, args pageArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	deals, meta, err := clients.Deals.List(ctx, args.options())
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(page(deals, meta)), nil, nil
}

func (s *Server) handleGetDeal(ctx context.Context, _ *mcp.CallToolRequest, args idArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	deal, err := clients.Deals.Get(ctx, args.ID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(deal), nil, nil
}

func (s *Server) handleSearchDeals(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := clients.Deals.Search(ctx, args.Term, &crm.ListOptions{Start: args.Start, Limit: args.Limit})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(items), nil, nil
}

func (s *Server) handleListPersons(ctx context.Context, _ *mcp.CallToolRequest, args pageArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	persons, meta, err := clients.Persons.List(ctx, args.options())
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(page(persons, meta)), nil, nil
}

func (s *Server) handleGetPerson(ctx context.Context, _ *mcp.CallToolRequest, args idArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	person, err := clients.Persons.Get(ctx, args.ID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(person), nil, nil
}

func (s *Server) handleSearchPersons(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := clients.Persons.Search(ctx, args.Term, &crm.ListOptions{Start: args.Start, Limit: args.Limit})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(items), nil, nil
}

func (s *Server) handleListOrganizations(ctx context.Context, _ *mcp.CallToolRequest, args pageArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	orgs, meta, err := clients.Organizations.List(ctx, args.options())
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(page(orgs, meta)), nil, nil
}

func (s *Server) handleGetOrganization(ctx context.Context, _ *mcp.CallToolRequest, args idArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	org, err := clients.Organizations.Get(ctx, args.ID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(org), nil, nil
}

func (s *Server) handleSearchOrganizations(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := clients.Organizations.Search(ctx, args.Term, &crm.ListOptions{Start: args.Start, Limit: args.Limit})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(items), nil, nil
}

func (s *Server) handleListPipelines(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	pipelines, err := clients.Pipelines.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(pipelines), nil, nil
}

func (s *Server) handleGetPipeline(ctx context.Context, _ *mcp.CallToolRequest, args idArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	pipeline, err := clients.Pipelines.Get(ctx, args.ID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(pipeline), nil, nil
}

type listStagesArgs struct {
	PipelineID int `json:"pipeline_id,omitempty" jsonschema:"restrict stages to one pipeline"`
}

func (s *Server) handleListStages(ctx context.Context, _ *mcp.CallToolRequest, args listStagesArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	stages, err := clients.Stages.List(ctx, args.PipelineID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(stages), nil, nil
}

func (s *Server) handleListUsers(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	users, err := clients.Users.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(users), nil, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	user, err := clients.Users.Me(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(user), nil, nil
}

type listNotesArgs struct {
	DealID   int `json:"deal_id,omitempty" jsonschema:"only notes attached to this deal"`
	PersonID int `json:"person_id,omitempty" jsonschema:"only notes attached to this person"`
	OrgID    int `json:"org_id,omitempty" jsonschema:"only notes attached to this organization"`
	Start    int `json:"start,omitempty" jsonschema:"pagination offset of the first item"`
	Limit    int `json:"limit,omitempty" jsonschema:"maximum number of items to return"`
}

func (s *Server) handleListNotes(ctx context.Context, _ *mcp.CallToolRequest, args listNotesArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	notes, meta, err := clients.Notes.List(ctx,
		&crm.NoteFilter{DealID: args.DealID, PersonID: args.PersonID, OrgID: args.OrgID},
		&crm.ListOptions{Start: args.Start, Limit: args.Limit},
	)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(page(notes, meta)), nil, nil
}

func (s *Server) handleSearchAll(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	clients, err := s.store.ClientFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := clients.Search.All(ctx, args.Term, &crm.ListOptions{Start: args.Start, Limit: args.Limit})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(items), nil, nil
}
