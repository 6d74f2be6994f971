package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        "deal-overview",
		Description: "Summarize a deal, including its contacts and recent notes.",
		Arguments: []*mcp.PromptArgument{
			{Name: "deal_id", Description: "Numeric ID of the deal to review", Required: true},
		},
	}, s.promptDealOverview)

	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-health",
		Description: "Assess the state of a sales pipeline stage by stage.",
		Arguments: []*mcp.PromptArgument{
			{Name: "pipeline_id", Description: "Numeric ID of the pipeline; omit to review all pipelines", Required: false},
		},
	}, s.promptPipelineHealth)

	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        "find-contact",
		Description: "Locate a person or organization and report what is known about them.",
		Arguments: []*mcp.PromptArgument{
			{Name: "name", Description: "Name or partial name to search for", Required: true},
		},
	}, s.promptFindContact)
}

func promptResult(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func (s *Server) promptDealOverview(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	dealID := req.Params.Arguments["deal_id"]
	if dealID == "" {
		return nil, fmt.Errorf("mcpserver: deal-overview requires a deal_id argument")
	}
	text := fmt.Sprintf(
		"Give me an overview of deal %s.\n\n"+
			"Use get_deal to fetch the deal itself, then get_person and "+
			"get_organization for its linked contacts, and list_notes filtered "+
			"to the deal for recent activity. Summarize the deal's value, stage, "+
			"status, the people involved, and anything notable from the notes.",
		dealID)
	return promptResult("Overview of deal "+dealID, text), nil
}

func (s *Server) promptPipelineHealth(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	pipelineID := req.Params.Arguments["pipeline_id"]
	var text string
	if pipelineID == "" {
		text = "Assess the health of every sales pipeline.\n\n" +
			"Use list_pipelines to enumerate them, list_stages for each one, and " +
			"list_deals to see how deals are distributed. Point out stages where " +
			"deals are piling up and pipelines with little activity."
	} else {
		text = fmt.Sprintf(
			"Assess the health of pipeline %s.\n\n"+
				"Use get_pipeline for its details, list_stages with pipeline_id=%s "+
				"for its stages, and list_deals to see how deals are distributed "+
				"across those stages. Point out stages where deals are piling up.",
			pipelineID, pipelineID)
	}
	return promptResult("Pipeline health review", text), nil
}

func (s *Server) promptFindContact(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["name"]
	if name == "" {
		return nil, fmt.Errorf("mcpserver: find-contact requires a name argument")
	}
	text := fmt.Sprintf(
		"Find the contact %q in the CRM.\n\n"+
			"Use search_persons and search_organizations with that term. For the "+
			"best match, fetch the full record with get_person or get_organization "+
			"and report their details and any deals they appear in (search_deals "+
			"can help). If nothing matches, say so plainly.",
		name)
	return promptResult("Contact lookup for "+name, text), nil
}
