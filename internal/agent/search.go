package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/charitybridge/nico/internal/faqs"
	"github.com/charitybridge/nico/internal/vectordb"
)

const (
	// Hits requested per keyword and per indexed field.
	faqSearchTopK = 3
	// Ceiling on FAQ entries included in the grounding prompt.
	maxFAQsInPrompt = 5
	// Ranked ids requested from child profile search.
	childSearchTopK = 5
)

// searchFAQs runs hybrid search for every keyword, merges the per-keyword
// hit groups, dedupes by id (first occurrence wins), orders by descending
// blended relevance, and resolves the top entries from the datastore.
func (o *Orchestrator) searchFAQs(ctx context.Context, call SearchFAQsCall) ([]faqs.FAQ, error) {
	groups, err := o.vectors.SearchFAQHybrid(ctx, call.Keywords, faqSearchTopK)
	if err != nil {
		return nil, fmt.Errorf("faq search: %w", err)
	}

	seen := make(map[int64]bool)
	var unique []vectordb.FAQHit
	for _, group := range groups {
		for _, hit := range group {
			if !seen[hit.ID] {
				seen[hit.ID] = true
				unique = append(unique, hit)
			}
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score > unique[j].Score
	})
	if len(unique) > maxFAQsInPrompt {
		unique = unique[:maxFAQsInPrompt]
	}

	ids := make([]int64, len(unique))
	for i, hit := range unique {
		ids[i] = hit.ID
	}

	entries, err := o.faqs.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving faq entries: %w", err)
	}
	return entries, nil
}

// SearchFAQs exposes FAQ retrieval to surfaces other than chat, such as
// the MCP server.
func (o *Orchestrator) SearchFAQs(ctx context.Context, keywords []string) ([]faqs.FAQ, error) {
	return o.searchFAQs(ctx, SearchFAQsCall{Keywords: keywords})
}
