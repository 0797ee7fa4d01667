package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shahrs5/supernetwork/internal/extract"
	"github.com/shahrs5/supernetwork/internal/match"
	"github.com/shahrs5/supernetwork/internal/profile"
)

// MCPDeps holds dependencies for the MCP server. The tools are
// stateless: they run the extraction and scoring pipeline on caller
// provided data without touching user accounts.
type MCPDeps struct {
	Profiles *profile.Extractor
	Scorer   match.Scorer
	Ranker   *match.Ranker
}

// mcpCandidate is the wire shape for a person in scoring tools.
type mcpCandidate struct {
	UserID      string              `json:"user_id,omitempty"`
	Profile     profile.Record      `json:"profile"`
	QuizAnswers profile.QuizAnswers `json:"quiz_answers,omitempty"`
}

func (c mcpCandidate) toMatch() match.Candidate {
	return match.Candidate{UserID: c.UserID, Profile: c.Profile, Quiz: c.QuizAnswers}
}

// NewMCPServer creates an MCP server with the profile and matching
// tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"supernet",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("supernet — resume profile extraction and match scoring."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("extract_profile",
			mcp.WithDescription("Extract a structured professional profile from a resume. Accepts PDF or plain text."),
			mcp.WithString("content", mcp.Description("Base64-encoded file content"), mcp.Required()),
			mcp.WithString("mime_type", mcp.Description("File MIME type: application/pdf or text/plain")),
		),
		mcpExtractProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("score_match",
			mcp.WithDescription("Score the compatibility of two professional profiles from 0 to 100 with an explanation."),
			mcp.WithString("viewer", mcp.Description("JSON object with the viewer's profile and quiz_answers"), mcp.Required()),
			mcp.WithString("candidate", mcp.Description("JSON object with the candidate's profile and quiz_answers"), mcp.Required()),
		),
		mcpScoreMatch(deps),
	)

	s.AddTool(
		mcp.NewTool("rank_matches",
			mcp.WithDescription("Score a list of candidates against a viewer and return them sorted best first."),
			mcp.WithString("viewer", mcp.Description("JSON object with the viewer's profile and quiz_answers"), mcp.Required()),
			mcp.WithString("candidates", mcp.Description("JSON array of candidate objects"), mcp.Required()),
		),
		mcpRankMatches(deps),
	)

	return s
}

func mcpExtractProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}
		mimeType := req.GetString("mime_type", extract.MimePlain)

		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return mcpError("invalid base64 content"), nil
		}

		text, err := extract.Extract(mimeType, data)
		if err != nil {
			return mcpError(fmt.Sprintf("could not read file: %v", err)), nil
		}

		record, err := deps.Profiles.Extract(ctx, text)
		if err != nil {
			return mcpError(fmt.Sprintf("profile extraction failed: %v", err)), nil
		}

		b, err := json.Marshal(record)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpScoreMatch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		viewer, res := requireCandidate(req, "viewer")
		if res != nil {
			return res, nil
		}
		candidate, res := requireCandidate(req, "candidate")
		if res != nil {
			return res, nil
		}

		result, err := deps.Scorer.Score(ctx, viewer.toMatch(), candidate.toMatch())
		if err != nil {
			return mcpError(fmt.Sprintf("scoring failed: %v", err)), nil
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRankMatches(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		viewer, res := requireCandidate(req, "viewer")
		if res != nil {
			return res, nil
		}

		candidatesJSON, err := req.RequireString("candidates")
		if err != nil {
			return mcpError("candidates is required"), nil
		}
		var raw []mcpCandidate
		if err := json.Unmarshal([]byte(candidatesJSON), &raw); err != nil {
			return mcpError(fmt.Sprintf("invalid candidates JSON: %v", err)), nil
		}

		candidates := make([]match.Candidate, len(raw))
		for i, c := range raw {
			candidates[i] = c.toMatch()
		}

		ranked := deps.Ranker.Rank(ctx, viewer.toMatch(), candidates)

		type rankedResult struct {
			UserID      string `json:"user_id,omitempty"`
			Name        string `json:"name"`
			Score       int    `json:"score"`
			Explanation string `json:"explanation"`
		}
		results := make([]rankedResult, len(ranked))
		for i, m := range ranked {
			results[i] = rankedResult{
				UserID:      m.UserID,
				Name:        m.Profile.Name,
				Score:       m.Score,
				Explanation: m.Explanation,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func requireCandidate(req mcp.CallToolRequest, key string) (mcpCandidate, *mcp.CallToolResult) {
	raw, err := req.RequireString(key)
	if err != nil {
		return mcpCandidate{}, mcpError(key + " is required")
	}
	var c mcpCandidate
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return mcpCandidate{}, mcpError(fmt.Sprintf("invalid %s JSON: %v", key, err))
	}
	c.Profile.Normalize()
	return c, nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
