// Package agent drives the charity assistant's chat turns: a routing
// completion that may request one of two tools, retrieval over FAQ and
// child-profile indexes, fusion of structured and semantic results, and
// a grounded follow-up completion.
package agent

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
	"github.com/charitybridge/nico/internal/llm"
	"github.com/charitybridge/nico/internal/vectordb"
)

// HistoryStore supplies a session's prior chat turns, oldest first.
type HistoryStore interface {
	Get(ctx context.Context, sessionID string) ([]llm.Message, error)
}

// VectorSearcher runs the semantic search paths.
type VectorSearcher interface {
	SearchFAQHybrid(ctx context.Context, keywords []string, topK int) ([][]vectordb.FAQHit, error)
	SearchChildProfiles(ctx context.Context, text string, topK int) ([]int64, error)
}

// ChildStore runs the structured search path and record lookups.
type ChildStore interface {
	FilterIDs(ctx context.Context, f children.Filter) ([]int64, error)
	ByIDs(ctx context.Context, ids []int64) ([]children.Child, error)
	Random(ctx context.Context, rng *rand.Rand) (*children.Child, error)
}

// FAQStore resolves FAQ records by id, preserving order.
type FAQStore interface {
	ByIDs(ctx context.Context, ids []int64) ([]faqs.FAQ, error)
}

// Reply is the final product of one chat turn.
type Reply struct {
	Model       string
	TotalTokens int
	Content     string
}

// Deps bundles the orchestrator's collaborators. Everything is injected
// so tests can substitute fakes.
type Deps struct {
	Provider llm.Provider
	Model    string
	History  HistoryStore
	Vectors  VectorSearcher
	Children ChildStore
	FAQs     FAQStore
	// RandSeed seeds the fallback-child RNG; 0 means seed from the clock.
	RandSeed int64
}

// Orchestrator owns the two-call chat protocol.
type Orchestrator struct {
	provider llm.Provider
	model    string
	history  HistoryStore
	vectors  VectorSearcher
	children ChildStore
	faqs     FAQStore

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an Orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	seed := deps.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Orchestrator{
		provider: deps.Provider,
		model:    deps.Model,
		history:  deps.History,
		vectors:  deps.Vectors,
		children: deps.Children,
		faqs:     deps.FAQs,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// GenerateResponse runs one chat turn for the session: a routing
// completion with the tool schema, at most one round of tool dispatch,
// and, when a tool ran, a grounded second completion with no tools.
func (o *Orchestrator) GenerateResponse(ctx context.Context, sessionID string) (*Reply, error) {
	chatHistory, err := o.history.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}

	first, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model:        o.model,
		SystemPrompt: routingPrompt,
		History:      chatHistory,
		Tools:        toolSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("routing completion: %w", err)
	}

	switch first.FinishReason {
	case llm.FinishStop:
		return &Reply{Model: first.Model, TotalTokens: first.TotalTokens, Content: first.Content}, nil

	case llm.FinishToolCalls:
		if len(first.ToolCalls) == 0 {
			return nil, fmt.Errorf("completion reported tool_calls but carried none")
		}
		// Only the first requested tool call is honored per turn.
		grounding, err := o.dispatchTool(ctx, first.ToolCalls[0])
		if err != nil {
			return nil, err
		}

		second, err := o.provider.Complete(ctx, llm.CompletionRequest{
			Model:        o.model,
			SystemPrompt: grounding,
			History:      chatHistory,
		})
		if err != nil {
			return nil, fmt.Errorf("grounding completion: %w", err)
		}
		// The second completion's finish reason is deliberately not
		// re-inspected: a repeated tool request here is ignored and its
		// content, possibly empty, returned as-is.
		return &Reply{Model: second.Model, TotalTokens: second.TotalTokens, Content: second.Content}, nil

	case llm.FinishLength:
		return nil, &ResponseTooLongError{}

	case llm.FinishContentFilter:
		return nil, &ContentFilteredError{}

	default:
		return nil, &UnknownFinishReasonError{Reason: string(first.FinishReason)}
	}
}

// dispatchTool executes the requested tool and returns the grounding
// prompt for the second completion.
func (o *Orchestrator) dispatchTool(ctx context.Context, tc llm.ToolCall) (string, error) {
	call, err := parseToolCall(tc)
	if err != nil {
		return "", err
	}

	switch call := call.(type) {
	case *SearchFAQsCall:
		entries, err := o.searchFAQs(ctx, *call)
		if err != nil {
			return "", err
		}
		log.Printf("agent: faq search for %v returned %d entries", call.Keywords, len(entries))
		return composeRelevantDocs(entries), nil

	case *FetchChildrenCall:
		outcome, err := o.searchChildren(ctx, *call)
		if err != nil {
			return "", err
		}
		log.Printf("agent: child search found=%t children=%d", outcome.Found, len(outcome.Children))
		return composeChildIntroduction(outcome), nil

	default:
		// parseToolCall only produces the two shapes above.
		return "", fmt.Errorf("unhandled tool call type %T", call)
	}
}
