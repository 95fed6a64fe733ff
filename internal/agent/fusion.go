package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/charitybridge/nico/internal/children"
)

// Children a single search outcome may carry.
const maxChildrenInOutcome = 3

// SearchOutcome is the result of child retrieval and fusion. Found=false
// means no search path matched and Children holds one randomly chosen
// substitute; the composer frames that case differently downstream.
type SearchOutcome struct {
	Children        []children.Child
	Found           bool
	SemanticKeyword string
}

// searchChildren fuses structured-filter and semantic-search results.
//
// The working id list is chosen by a tri-way branch: semantic results
// pass through untouched when no structured filter exists (an empty
// filter must not mean "match everything"), structured results pass
// through when no semantic keyword was given (a missing keyword must not
// mean "match nothing"), and otherwise the semantic ranking is filtered
// by structured membership. When nothing survives, one uniformly random
// child stands in and the outcome is flagged as not found.
func (o *Orchestrator) searchChildren(ctx context.Context, call FetchChildrenCall) (SearchOutcome, error) {
	filter := buildChildFilter(call)
	keyword := call.ProfileDescription

	// The two lookups hit independent backends; run them concurrently
	// and join before fusing.
	var (
		wg            sync.WaitGroup
		structuredIDs []int64
		semanticIDs   []int64
		structuredErr error
		semanticErr   error
	)
	if !filter.Empty() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			structuredIDs, structuredErr = o.children.FilterIDs(ctx, filter)
		}()
	}
	if keyword != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			semanticIDs, semanticErr = o.vectors.SearchChildProfiles(ctx, keyword, childSearchTopK)
		}()
	}
	wg.Wait()

	if structuredErr != nil {
		return SearchOutcome{}, fmt.Errorf("structured child search: %w", structuredErr)
	}
	if semanticErr != nil {
		return SearchOutcome{}, fmt.Errorf("semantic child search: %w", semanticErr)
	}

	var working []int64
	switch {
	case filter.Empty():
		working = semanticIDs
	case keyword == "":
		working = structuredIDs
	default:
		structuredSet := make(map[int64]bool, len(structuredIDs))
		for _, id := range structuredIDs {
			structuredSet[id] = true
		}
		for _, id := range semanticIDs {
			if structuredSet[id] {
				working = append(working, id)
			}
		}
	}

	if len(working) > 0 {
		records, err := o.children.ByIDs(ctx, working)
		if err != nil {
			return SearchOutcome{}, fmt.Errorf("fetching matched children: %w", err)
		}
		if len(records) > maxChildrenInOutcome {
			records = records[:maxChildrenInOutcome]
		}
		return SearchOutcome{Children: records, Found: true, SemanticKeyword: keyword}, nil
	}

	fallback, err := o.randomChild(ctx)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("selecting fallback child: %w", err)
	}
	return SearchOutcome{
		Children:        []children.Child{*fallback},
		Found:           false,
		SemanticKeyword: keyword,
	}, nil
}

// FindChildren exposes child retrieval and fusion to surfaces other
// than chat, such as the MCP server.
func (o *Orchestrator) FindChildren(ctx context.Context, call FetchChildrenCall) (SearchOutcome, error) {
	return o.searchChildren(ctx, call)
}

// randomChild draws uniformly over the whole child population. The RNG is
// shared across turns, so serialize access to it.
func (o *Orchestrator) randomChild(ctx context.Context) (*children.Child, error) {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	return o.children.Random(ctx, o.rng)
}
