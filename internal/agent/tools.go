package agent

import (
	"encoding/json"
	"strings"

	"github.com/charitybridge/nico/internal/llm"
)

// Tool names offered to the model on every routing call.
const (
	toolSearchFAQs    = "search_relevant_faqs"
	toolFetchChildren = "fetch_children"
)

// toolSchema declares the two callable functions. The keys are fixed at
// build time and the full schema is sent with every initial call.
func toolSchema() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolSearchFAQs,
			Description: "Search the vector database for the most relevant FAQ entries based on the user's query. Each FAQ entry consists of a question and an answer, and the query is compared against both to retrieve the best matches.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"search_keywords": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Keywords or short phrases capturing the user's question, used to find relevant FAQ entries.",
					},
				},
				"required": []string{"search_keywords"},
			},
		},
		{
			Name:        toolFetchChildren,
			Description: "Fetch children's details based on specific attributes like gender, age, country, and preference.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"gender": map[string]any{
						"type":        "string",
						"description": "The preferred gender of the child. Options are 'female', 'male', or 'other'. Leave blank or omit this field if no preference.",
					},
					"min_age": map[string]any{
						"type":        "integer",
						"description": "The minimum preferred age of the child. Leave blank if not specified.",
					},
					"max_age": map[string]any{
						"type":        "integer",
						"description": "The maximum preferred age of the child. Leave blank if not specified.",
					},
					"country": map[string]any{
						"type":        "string",
						"description": "The country the child is from. Leave blank if not specified.",
					},
					"profile_description": map[string]any{
						"type":        "string",
						"description": "Keywords or interests to match in the child's profile description. Leave blank if not specified.",
					},
					"birth_month": map[string]any{
						"type":        "integer",
						"description": "The birth month of the child (1 for January, 2 for February, etc.). Leave blank if not specified.",
						"minimum":     1,
						"maximum":     12,
					},
					"birth_day": map[string]any{
						"type":        "integer",
						"description": "The birth day of the child (1 to 31, depending on the month). Leave blank if not specified.",
						"minimum":     1,
						"maximum":     31,
					},
				},
				"required": []string{},
			},
		},
	}
}

// SearchFAQsCall is the parsed form of a search_relevant_faqs tool call.
type SearchFAQsCall struct {
	Keywords []string
}

// FetchChildrenCall is the parsed form of a fetch_children tool call.
// Pointer fields distinguish "not supplied" from a zero value.
type FetchChildrenCall struct {
	Gender             string
	Country            string
	MinAge             *int
	MaxAge             *int
	BirthMonth         *int
	BirthDay           *int
	ProfileDescription string
}

// parseToolCall validates a raw tool call at the boundary and returns
// either *SearchFAQsCall or *FetchChildrenCall. Unknown tool names are
// rejected with UndefinedToolCallError before any retrieval runs.
// Arguments of the wrong type are dropped silently rather than failing
// the turn; the model frequently omits or mangles optional fields.
func parseToolCall(tc llm.ToolCall) (any, error) {
	args := map[string]any{}
	if len(tc.Arguments) > 0 {
		// Model-produced argument JSON; a parse failure leaves all
		// arguments absent rather than failing the turn.
		dec := json.NewDecoder(strings.NewReader(string(tc.Arguments)))
		dec.UseNumber()
		_ = dec.Decode(&args)
	}

	switch tc.Name {
	case toolSearchFAQs:
		call := &SearchFAQsCall{}
		if raw, ok := args["search_keywords"].([]any); ok {
			for _, item := range raw {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					call.Keywords = append(call.Keywords, s)
				}
			}
		}
		return call, nil

	case toolFetchChildren:
		call := &FetchChildrenCall{
			Gender:             stringArg(args, "gender"),
			Country:            stringArg(args, "country"),
			MinAge:             intArg(args, "min_age"),
			MaxAge:             intArg(args, "max_age"),
			BirthMonth:         intArg(args, "birth_month"),
			BirthDay:           intArg(args, "birth_day"),
			ProfileDescription: stringArg(args, "profile_description"),
		}
		return call, nil

	default:
		return nil, &UndefinedToolCallError{Name: tc.Name}
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// intArg returns the argument only when it is integer-typed; strings,
// fractions, and other shapes are treated as absent.
func intArg(args map[string]any, key string) *int {
	num, ok := args[key].(json.Number)
	if !ok {
		return nil
	}
	v, err := num.Int64()
	if err != nil {
		return nil
	}
	i := int(v)
	return &i
}
