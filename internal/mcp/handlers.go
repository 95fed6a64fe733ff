package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/charitybridge/nico/internal/agent"
	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
)

// handleSearchFAQs runs hybrid FAQ search for the given keywords.
func (s *Server) handleSearchFAQs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keywords := request.GetStringSlice("keywords", nil)
	if len(keywords) == 0 {
		return mcp.NewToolResultError("missing required parameter: keywords"), nil
	}

	entries, err := s.searcher.SearchFAQs(ctx, keywords)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("faq search failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No matching FAQ entries found. The index may not be built yet; run `nico sync`."), nil
	}

	return mcp.NewToolResultText(formatFAQResults(entries)), nil
}

// handleFindChildren runs the structured+semantic child search.
func (s *Server) handleFindChildren(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	call := agent.FetchChildrenCall{
		Gender:             request.GetString("gender", ""),
		Country:            request.GetString("country", ""),
		ProfileDescription: request.GetString("profile_description", ""),
	}
	if v := request.GetInt("min_age", -1); v >= 0 {
		call.MinAge = &v
	}
	if v := request.GetInt("max_age", -1); v >= 0 {
		call.MaxAge = &v
	}
	if v := request.GetInt("birth_month", -1); v >= 1 {
		call.BirthMonth = &v
	}
	if v := request.GetInt("birth_day", -1); v >= 1 {
		call.BirthDay = &v
	}

	outcome, err := s.searcher.FindChildren(ctx, call)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("child search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatChildResults(outcome)), nil
}

func formatFAQResults(entries []faqs.FAQ) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d FAQ entr(ies):\n", len(entries))
	for _, f := range entries {
		fmt.Fprintf(&sb, "\nQuestion: %s\nAnswer: %s\nLink: %s\n", f.Question, f.Answer, f.DetailPath())
	}
	return sb.String()
}

func formatChildResults(outcome agent.SearchOutcome) string {
	var sb strings.Builder
	if outcome.Found {
		fmt.Fprintf(&sb, "Found %d matching child(ren):\n", len(outcome.Children))
	} else {
		sb.WriteString("No child matched the given preferences. Here is an alternative suggestion:\n")
	}
	for _, c := range outcome.Children {
		writeChildBlock(&sb, c)
	}
	return sb.String()
}

func writeChildBlock(sb *strings.Builder, c children.Child) {
	fmt.Fprintf(sb, "\nName: %s (ID: %d)\nAge: %d\nGender: %s\nCountry: %s\nProfile: %s\nLink: %s\n",
		c.Name, c.ID, c.Age, c.Gender, c.Country, c.ProfileDescription, c.DetailPath())
}
