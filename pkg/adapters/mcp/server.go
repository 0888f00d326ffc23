// Package mcp exposes the algorithm engine to MCP clients so that
// agents can browse documents and walk cases over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shaktimishra84/icuflow"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/flow"
)

// NodeView is the rendered current step of a case. Resolved is false
// when the case followed an edge to an unknown node.
type NodeView struct {
	ID       string        `json:"id"`
	Text     string        `json:"text,omitempty" jsonschema_description:"The text shown for this step"`
	End      bool          `json:"end,omitempty"`
	Options  []flow.Choice `json:"options,omitempty" jsonschema_description:"Choices available from this step"`
	Resolved bool          `json:"resolved"`
}

// CaseResponse is the unified result shape for case tools.
type CaseResponse struct {
	Case *caselog.Case `json:"case" jsonschema_description:"The full case including its transcript"`
	Node *NodeView     `json:"node,omitempty" jsonschema_description:"The current step of the case"`
}

// Server wraps an App and exposes it as an MCP server.
type Server struct {
	app       *icuflow.App
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance around app.
func NewServer(app *icuflow.App) *Server {
	s := &Server{
		app:       app,
		mcpServer: server.NewMCPServer("icuflow-mcp", strings.TrimSpace(icuflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// TOOL: list_documents
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List available clinical algorithm documents. An optional query filters by id or title."),
		mcp.WithString("query", mcp.Description("Substring to match against document ids and titles (optional)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")
		entries := s.app.Search(query)
		jsonBytes, _ := json.Marshal(entries)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_document
	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get the decision graph of a document for introspection."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("The document id, e.g. '03_sepsis_bundle'")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("document_id", "")
		doc, err := s.app.Library().Document(id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(map[string]any{
			"id":    doc.ID,
			"title": doc.Title,
			"start": doc.Start,
			"nodes": doc.Nodes(),
		})
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: start_case
	startTool := mcp.NewTool("start_case",
		mcp.WithDescription("Open a new case against a document, positioned at the start node."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("The document to walk")),
		mcp.WithString("metadata", mcp.Description("JSON object of free-form case metadata (optional)")),
		mcp.WithOutputSchema[CaseResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartCase))

	// TOOL: choose
	chooseTool := mcp.NewTool("choose",
		mcp.WithDescription("Apply a labeled choice to an active case and advance it."),
		mcp.WithString("case_id", mcp.Required(), mcp.Description("The case to advance")),
		mcp.WithString("label", mcp.Required(), mcp.Description("The label of the option to take, e.g. 'Yes'")),
		mcp.WithOutputSchema[CaseResponse](),
	)
	s.mcpServer.AddTool(chooseTool, mcp.NewStructuredToolHandler(s.handleChoose))

	// TOOL: restart_case
	restartTool := mcp.NewTool("restart_case",
		mcp.WithDescription("Reset a case to the start node. The case id and metadata survive; the transcript is cleared."),
		mcp.WithString("case_id", mcp.Required(), mcp.Description("The case to restart")),
		mcp.WithOutputSchema[CaseResponse](),
	)
	s.mcpServer.AddTool(restartTool, mcp.NewStructuredToolHandler(s.handleRestart))

	// TOOL: get_transcript
	s.mcpServer.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Get the full decision transcript of a case as a portable export record."),
		mcp.WithString("case_id", mcp.Required(), mcp.Description("The case to export")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rec, err := s.app.Transcript(ctx, request.GetString("case_id", ""))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("transcript failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(rec)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleStartCase(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CaseResponse, error) {
	documentID, _ := args["document_id"].(string)

	var metadata map[string]string
	if metaStr, ok := args["metadata"].(string); ok && metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &metadata); err != nil {
			return CaseResponse{}, fmt.Errorf("invalid metadata: %w", err)
		}
	}

	c, err := s.app.StartCase(ctx, documentID, metadata)
	if err != nil {
		return CaseResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.respond(c)
}

func (s *Server) handleChoose(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CaseResponse, error) {
	caseID, _ := args["case_id"].(string)
	label, _ := args["label"].(string)

	c, err := s.app.Choose(ctx, caseID, label)
	if err != nil {
		return CaseResponse{}, fmt.Errorf("choose failed: %w", err)
	}
	return s.respond(c)
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CaseResponse, error) {
	caseID, _ := args["case_id"].(string)

	c, err := s.app.Restart(ctx, caseID)
	if err != nil {
		return CaseResponse{}, fmt.Errorf("restart failed: %w", err)
	}
	return s.respond(c)
}

func (s *Server) respond(c *caselog.Case) (CaseResponse, error) {
	runner, err := s.app.Runner(c)
	if err != nil {
		return CaseResponse{}, fmt.Errorf("document lookup failed: %w", err)
	}

	resp := CaseResponse{Case: c}
	if node, ok := runner.Current(c); ok {
		resp.Node = &NodeView{ID: node.ID, Text: node.Text, End: node.End, Options: node.Options, Resolved: true}
	} else {
		resp.Node = &NodeView{ID: c.CurrentNodeID, Resolved: false}
	}
	return resp, nil
}

func (s *Server) registerResources() {
	// EXPOSE: icuflow://documents
	s.mcpServer.AddResource(mcp.NewResource("icuflow://documents", "Algorithm Document Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.app.Documents())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "icuflow://documents",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
