package llm

import "encoding/json"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// FinishReason is the model's signal for why generation stopped. The
// gateway passes it through verbatim; only the orchestrator interprets it.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
)

// Tool declares a function the model may ask the application to run.
// Parameters is a JSON Schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is the model's request to invoke a declared tool. Arguments
// is the raw JSON argument object as produced by the model.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// CompletionRequest contains the parameters for an LLM completion request.
// History is ordered oldest-first. A nil Tools slice means no tools are
// offered for this call.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	History      []Message
	Tools        []Tool
	MaxTokens    int
	Temperature  float64
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	ToolCalls    []ToolCall
	TotalTokens  int
	Model        string
	FinishReason FinishReason
}
