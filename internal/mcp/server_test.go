package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/charitybridge/nico/internal/agent"
	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
)

// mockSearcher implements Searcher for testing.
type mockSearcher struct {
	faqs     []faqs.FAQ
	outcome  agent.SearchOutcome
	lastCall agent.FetchChildrenCall
}

func (m *mockSearcher) SearchFAQs(_ context.Context, keywords []string) ([]faqs.FAQ, error) {
	return m.faqs, nil
}

func (m *mockSearcher) FindChildren(_ context.Context, call agent.FetchChildrenCall) (agent.SearchOutcome, error) {
	m.lastCall = call
	return m.outcome, nil
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"search_faqs", searchFAQsTool, "search_faqs"},
		{"find_children", findChildrenTool, "find_children"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	searcher := &mockSearcher{}
	srv := NewServer(searcher)

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.searcher != searcher {
		t.Error("searcher not set correctly")
	}
}

func TestHandleSearchFAQs(t *testing.T) {
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		srv := NewServer(&mockSearcher{faqs: []faqs.FAQ{
			{ID: 1, Question: "What is your mission?", Answer: "We support children."},
		}})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"keywords": []any{"mission"},
		}

		result, err := srv.handleSearchFAQs(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "What is your mission?") || !strings.Contains(text, "/faqs/1/") {
			t.Errorf("unexpected result text: %s", text)
		}
	})

	t.Run("missing keywords", func(t *testing.T) {
		srv := NewServer(&mockSearcher{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchFAQs(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing keywords")
		}
	})

	t.Run("no matches", func(t *testing.T) {
		srv := NewServer(&mockSearcher{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"keywords": []any{"anything"},
		}

		result, err := srv.handleSearchFAQs(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("no matches should not be a tool error: %v", result.Content)
		}
		if !strings.Contains(resultText(t, result), "nico sync") {
			t.Error("expected a hint about building the index")
		}
	})
}

func TestHandleFindChildren(t *testing.T) {
	ctx := context.Background()

	t.Run("arguments are forwarded", func(t *testing.T) {
		searcher := &mockSearcher{outcome: agent.SearchOutcome{
			Children: []children.Child{{ID: 4, Name: "Amara", Age: 9, Gender: "Female", Country: "Kenya"}},
			Found:    true,
		}}
		srv := NewServer(searcher)

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"gender":  "female",
			"min_age": float64(5),
			"max_age": float64(10),
		}

		result, err := srv.handleFindChildren(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}

		if searcher.lastCall.Gender != "female" {
			t.Errorf("gender not forwarded: %+v", searcher.lastCall)
		}
		if searcher.lastCall.MinAge == nil || *searcher.lastCall.MinAge != 5 {
			t.Errorf("min_age not forwarded: %+v", searcher.lastCall)
		}
		if searcher.lastCall.MaxAge == nil || *searcher.lastCall.MaxAge != 10 {
			t.Errorf("max_age not forwarded: %+v", searcher.lastCall)
		}
		if searcher.lastCall.BirthMonth != nil {
			t.Errorf("absent birth_month should stay nil: %+v", searcher.lastCall)
		}

		text := resultText(t, result)
		if !strings.Contains(text, "Amara") || !strings.Contains(text, "/sponsors/children/4/") {
			t.Errorf("unexpected result text: %s", text)
		}
	})

	t.Run("fallback outcome is labeled", func(t *testing.T) {
		srv := NewServer(&mockSearcher{outcome: agent.SearchOutcome{
			Children: []children.Child{{ID: 7, Name: "Leo"}},
			Found:    false,
		}})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"gender": "male"}

		result, err := srv.handleFindChildren(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "alternative suggestion") {
			t.Errorf("fallback should be labeled as such: %s", text)
		}
	})
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}
