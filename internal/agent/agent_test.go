package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
	"github.com/charitybridge/nico/internal/llm"
	"github.com/charitybridge/nico/internal/vectordb"
)

// --- Fakes ---

type fakeProvider struct {
	responses []*llm.CompletionResponse
	calls     []llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls = append(f.calls, req)
	if len(f.responses) == 0 {
		return nil, errors.New("fakeProvider: no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakeHistory struct {
	msgs []llm.Message
}

func (f *fakeHistory) Get(ctx context.Context, sessionID string) ([]llm.Message, error) {
	return f.msgs, nil
}

type fakeVectors struct {
	faqGroups  [][]vectordb.FAQHit
	childIDs   []int64
	faqCalls   int
	childCalls int
	lastText   string
}

func (f *fakeVectors) SearchFAQHybrid(ctx context.Context, keywords []string, topK int) ([][]vectordb.FAQHit, error) {
	f.faqCalls++
	return f.faqGroups, nil
}

func (f *fakeVectors) SearchChildProfiles(ctx context.Context, text string, topK int) ([]int64, error) {
	f.childCalls++
	f.lastText = text
	return f.childIDs, nil
}

type fakeChildren struct {
	filterIDs   []int64
	filterCalls int
	lastFilter  children.Filter
	missing     map[int64]bool
	randomID    int64
	randomCalls int
}

func (f *fakeChildren) FilterIDs(ctx context.Context, filter children.Filter) ([]int64, error) {
	f.filterCalls++
	f.lastFilter = filter
	return f.filterIDs, nil
}

func (f *fakeChildren) ByIDs(ctx context.Context, ids []int64) ([]children.Child, error) {
	var out []children.Child
	for _, id := range ids {
		if f.missing[id] {
			continue
		}
		out = append(out, testChild(id))
	}
	return out, nil
}

func (f *fakeChildren) Random(ctx context.Context, rng *rand.Rand) (*children.Child, error) {
	f.randomCalls++
	c := testChild(f.randomID)
	return &c, nil
}

func testChild(id int64) children.Child {
	return children.Child{
		ID:                 id,
		Name:               fmt.Sprintf("Child %d", id),
		Age:                8,
		Gender:             "Female",
		Country:            "Kenya",
		ProfileDescription: "Loves reading",
	}
}

type fakeFAQs struct{}

func (fakeFAQs) ByIDs(ctx context.Context, ids []int64) ([]faqs.FAQ, error) {
	out := make([]faqs.FAQ, len(ids))
	for i, id := range ids {
		out[i] = faqs.FAQ{ID: id, Question: fmt.Sprintf("Q%d", id), Answer: fmt.Sprintf("A%d", id)}
	}
	return out, nil
}

func newTestOrchestrator(provider *fakeProvider, vectors *fakeVectors, childStore *fakeChildren) *Orchestrator {
	return New(Deps{
		Provider: provider,
		Model:    "gpt-test",
		History:  &fakeHistory{msgs: []llm.Message{{Role: llm.RoleAssistant, Content: "Hi..."}}},
		Vectors:  vectors,
		Children: childStore,
		FAQs:     fakeFAQs{},
		RandSeed: 1,
	})
}

func toolCall(name, args string) llm.ToolCall {
	return llm.ToolCall{Name: name, Arguments: json.RawMessage(args)}
}

// --- Tool call parsing and filter building ---

func TestParseToolCallUnknownName(t *testing.T) {
	_, err := parseToolCall(toolCall("delete_database", `{}`))

	var undefined *UndefinedToolCallError
	if !errors.As(err, &undefined) {
		t.Fatalf("expected UndefinedToolCallError, got %v", err)
	}
	if undefined.Name != "delete_database" {
		t.Errorf("expected tool name in error, got %q", undefined.Name)
	}
}

func TestParseToolCallDropsNonIntegerAges(t *testing.T) {
	call, err := parseToolCall(toolCall(toolFetchChildren,
		`{"min_age": "five", "max_age": 10.5, "birth_month": 3}`))
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}

	fc := call.(*FetchChildrenCall)
	if fc.MinAge != nil {
		t.Errorf("string min_age should be dropped, got %d", *fc.MinAge)
	}
	if fc.MaxAge != nil {
		t.Errorf("fractional max_age should be dropped, got %d", *fc.MaxAge)
	}
	if fc.BirthMonth == nil || *fc.BirthMonth != 3 {
		t.Errorf("integer birth_month should survive, got %v", fc.BirthMonth)
	}
}

func TestParseToolCallMalformedArguments(t *testing.T) {
	call, err := parseToolCall(toolCall(toolFetchChildren, `not json`))
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}
	fc := call.(*FetchChildrenCall)
	if !buildChildFilter(*fc).Empty() {
		t.Error("malformed arguments should yield an empty filter")
	}
}

func TestParseSearchFAQsKeywords(t *testing.T) {
	call, err := parseToolCall(toolCall(toolSearchFAQs,
		`{"search_keywords": ["donations", 42, " ", "mission"]}`))
	if err != nil {
		t.Fatalf("parseToolCall: %v", err)
	}

	sc := call.(*SearchFAQsCall)
	if len(sc.Keywords) != 2 || sc.Keywords[0] != "donations" || sc.Keywords[1] != "mission" {
		t.Errorf("expected [donations mission], got %v", sc.Keywords)
	}
}

func TestBuildChildFilterEmptyArguments(t *testing.T) {
	f := buildChildFilter(FetchChildrenCall{})
	if !f.Empty() {
		t.Errorf("expected empty filter, got %+v", f)
	}
}

func TestBuildChildFilterExcludesAll(t *testing.T) {
	for _, value := range []string{"all", "All", "ALL"} {
		f := buildChildFilter(FetchChildrenCall{Gender: value, Country: value})
		if f.Gender != "" {
			t.Errorf("gender %q should be excluded", value)
		}
		if f.Country != "" {
			t.Errorf("country %q should be excluded", value)
		}
	}
}

func TestBuildChildFilterFullArguments(t *testing.T) {
	five, ten, three, fifteen := 5, 10, 3, 15
	f := buildChildFilter(FetchChildrenCall{
		Gender:     "female",
		Country:    "Bolivia",
		MinAge:     &five,
		MaxAge:     &ten,
		BirthMonth: &three,
		BirthDay:   &fifteen,
	})

	if f.Gender != "female" || f.Country != "Bolivia" {
		t.Errorf("unexpected filter %+v", f)
	}
	if f.MinAge == nil || *f.MinAge != 5 || f.MaxAge == nil || *f.MaxAge != 10 {
		t.Errorf("age range lost: %+v", f)
	}
	if f.BirthMonth == nil || *f.BirthMonth != 3 || f.BirthDay == nil || *f.BirthDay != 15 {
		t.Errorf("birth date lost: %+v", f)
	}
}

// --- Fusion ---

func TestFusionNoFilterNoKeyword(t *testing.T) {
	childStore := &fakeChildren{randomID: 77}
	vectors := &fakeVectors{}
	o := newTestOrchestrator(&fakeProvider{}, vectors, childStore)

	outcome, err := o.searchChildren(context.Background(), FetchChildrenCall{})
	if err != nil {
		t.Fatalf("searchChildren: %v", err)
	}

	if outcome.Found {
		t.Error("expected found=false")
	}
	if len(outcome.Children) != 1 || outcome.Children[0].ID != 77 {
		t.Errorf("expected the random child, got %+v", outcome.Children)
	}
	if childStore.filterCalls != 0 {
		t.Error("structured search should be skipped entirely, not run vacuously")
	}
	if vectors.childCalls != 0 {
		t.Error("semantic search should not run without a keyword")
	}
	if childStore.randomCalls != 1 {
		t.Errorf("expected 1 random draw, got %d", childStore.randomCalls)
	}
}

func TestFusionSemanticOnlyPreservesOrder(t *testing.T) {
	childStore := &fakeChildren{}
	vectors := &fakeVectors{childIDs: []int64{5, 2, 9}}
	o := newTestOrchestrator(&fakeProvider{}, vectors, childStore)

	outcome, err := o.searchChildren(context.Background(),
		FetchChildrenCall{ProfileDescription: "loves football"})
	if err != nil {
		t.Fatalf("searchChildren: %v", err)
	}

	if !outcome.Found {
		t.Error("expected found=true")
	}
	got := childIDs(outcome.Children)
	if len(got) != 3 || got[0] != 5 || got[1] != 2 || got[2] != 9 {
		t.Errorf("expected [5 2 9], got %v", got)
	}
	if outcome.SemanticKeyword != "loves football" {
		t.Errorf("unexpected keyword %q", outcome.SemanticKeyword)
	}
	if childStore.filterCalls != 0 {
		t.Error("structured search should not run with an empty filter")
	}
}

func TestFusionStructuredOnly(t *testing.T) {
	childStore := &fakeChildren{filterIDs: []int64{2, 5, 7}}
	vectors := &fakeVectors{}
	o := newTestOrchestrator(&fakeProvider{}, vectors, childStore)

	outcome, err := o.searchChildren(context.Background(),
		FetchChildrenCall{Gender: "female"})
	if err != nil {
		t.Fatalf("searchChildren: %v", err)
	}

	if !outcome.Found {
		t.Error("expected found=true")
	}
	got := childIDs(outcome.Children)
	if len(got) != 3 || got[0] != 2 || got[1] != 5 || got[2] != 7 {
		t.Errorf("expected [2 5 7], got %v", got)
	}
	if vectors.childCalls != 0 {
		t.Error("semantic search should not run without a keyword")
	}
	if childStore.lastFilter.Gender != "female" {
		t.Errorf("filter not applied: %+v", childStore.lastFilter)
	}
}

func TestFusionIntersectionKeepsSemanticOrder(t *testing.T) {
	childStore := &fakeChildren{filterIDs: []int64{2, 5}}
	vectors := &fakeVectors{childIDs: []int64{5, 2, 9}}
	o := newTestOrchestrator(&fakeProvider{}, vectors, childStore)

	outcome, err := o.searchChildren(context.Background(),
		FetchChildrenCall{Gender: "female", ProfileDescription: "football"})
	if err != nil {
		t.Fatalf("searchChildren: %v", err)
	}

	got := childIDs(outcome.Children)
	if len(got) != 2 || got[0] != 5 || got[1] != 2 {
		t.Errorf("expected [5 2], got %v", got)
	}
}

func TestFusionEmptyIntersectionFallsBack(t *testing.T) {
	childStore := &fakeChildren{filterIDs: []int64{1, 3}, randomID: 42}
	vectors := &fakeVectors{childIDs: []int64{5, 2}}
	o := newTestOrchestrator(&fakeProvider{}, vectors, childStore)

	outcome, err := o.searchChildren(context.Background(),
		FetchChildrenCall{Gender: "male", ProfileDescription: "football"})
	if err != nil {
		t.Fatalf("searchChildren: %v", err)
	}

	if outcome.Found {
		t.Error("expected found=false for empty intersection")
	}
	if len(outcome.Children) != 1 || outcome.Children[0].ID != 42 {
		t.Errorf("expected random child 42, got %+v", outcome.Children)
	}
	if outcome.SemanticKeyword != "football" {
		t.Errorf("keyword should survive the fallback, got %q", outcome.SemanticKeyword)
	}
}

func TestFusionResultCap(t *testing.T) {
	vectors := &fakeVectors{childIDs: []int64{1, 2, 3, 4, 5}}
	o := newTestOrchestrator(&fakeProvider{}, vectors, &fakeChildren{})

	outcome, err := o.searchChildren(context.Background(),
		FetchChildrenCall{ProfileDescription: "music"})
	if err != nil {
		t.Fatalf("searchChildren: %v", err)
	}
	if len(outcome.Children) != 3 {
		t.Errorf("expected cap of 3 children, got %d", len(outcome.Children))
	}
}

func TestFusionSkipsMissingIDs(t *testing.T) {
	childStore := &fakeChildren{missing: map[int64]bool{2: true}}
	vectors := &fakeVectors{childIDs: []int64{5, 2, 9}}
	o := newTestOrchestrator(&fakeProvider{}, vectors, childStore)

	outcome, err := o.searchChildren(context.Background(),
		FetchChildrenCall{ProfileDescription: "reading"})
	if err != nil {
		t.Fatalf("searchChildren: %v", err)
	}
	got := childIDs(outcome.Children)
	if len(got) != 2 || got[0] != 5 || got[1] != 9 {
		t.Errorf("expected [5 9], got %v", got)
	}
}

func childIDs(cs []children.Child) []int64 {
	ids := make([]int64, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

// --- Orchestrator state machine ---

func TestGenerateResponseStop(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.CompletionResponse{
		{Model: "gpt-test", TotalTokens: 21, FinishReason: llm.FinishStop, Content: "Hello there!"},
	}}
	o := newTestOrchestrator(provider, &fakeVectors{}, &fakeChildren{})

	reply, err := o.GenerateResponse(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if reply.Content != "Hello there!" {
		t.Errorf("expected first completion content verbatim, got %q", reply.Content)
	}
	if reply.TotalTokens != 21 {
		t.Errorf("expected token usage 21, got %d", reply.TotalTokens)
	}
	if len(provider.calls) != 1 {
		t.Errorf("no second call should be issued, got %d calls", len(provider.calls))
	}
}

func TestGenerateResponseOffersToolsOnlyInitially(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.CompletionResponse{
		{FinishReason: llm.FinishToolCalls, ToolCalls: []llm.ToolCall{
			toolCall(toolFetchChildren, `{"gender":"female"}`),
		}},
		{Model: "gpt-test", TotalTokens: 33, FinishReason: llm.FinishStop, Content: "Meet Amara!"},
	}}
	childStore := &fakeChildren{filterIDs: []int64{4, 8}}
	o := newTestOrchestrator(provider, &fakeVectors{}, childStore)

	reply, err := o.GenerateResponse(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}

	if len(provider.calls) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(provider.calls))
	}
	if len(provider.calls[0].Tools) == 0 {
		t.Error("initial call must offer the tool schema")
	}
	if len(provider.calls[1].Tools) != 0 {
		t.Error("grounding call must not offer tools")
	}
	if !strings.Contains(provider.calls[1].SystemPrompt, "Child 4") {
		t.Errorf("grounding prompt should embed the matched children: %q", provider.calls[1].SystemPrompt)
	}
	if reply.Content != "Meet Amara!" || reply.TotalTokens != 33 {
		t.Errorf("expected second completion result, got %+v", reply)
	}
}

func TestGenerateResponseTypedFailures(t *testing.T) {
	cases := []struct {
		name   string
		reason llm.FinishReason
		check  func(error) bool
	}{
		{"length", llm.FinishLength, func(err error) bool {
			var e *ResponseTooLongError
			return errors.As(err, &e)
		}},
		{"content_filter", llm.FinishContentFilter, func(err error) bool {
			var e *ContentFilteredError
			return errors.As(err, &e)
		}},
		{"unknown", llm.FinishReason("server_overloaded"), func(err error) bool {
			var e *UnknownFinishReasonError
			return errors.As(err, &e) && e.Reason == "server_overloaded"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{responses: []*llm.CompletionResponse{
				{FinishReason: tc.reason},
			}}
			o := newTestOrchestrator(provider, &fakeVectors{}, &fakeChildren{})

			_, err := o.GenerateResponse(context.Background(), "s1")
			if err == nil || !tc.check(err) {
				t.Errorf("expected typed failure for %s, got %v", tc.name, err)
			}
			if len(provider.calls) != 1 {
				t.Errorf("no further calls expected, got %d", len(provider.calls))
			}
		})
	}
}

func TestGenerateResponseUndefinedTool(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.CompletionResponse{
		{FinishReason: llm.FinishToolCalls, ToolCalls: []llm.ToolCall{
			toolCall("send_email", `{}`),
		}},
	}}
	vectors := &fakeVectors{}
	childStore := &fakeChildren{}
	o := newTestOrchestrator(provider, vectors, childStore)

	_, err := o.GenerateResponse(context.Background(), "s1")

	var undefined *UndefinedToolCallError
	if !errors.As(err, &undefined) {
		t.Fatalf("expected UndefinedToolCallError, got %v", err)
	}
	if vectors.faqCalls != 0 || vectors.childCalls != 0 || childStore.filterCalls != 0 {
		t.Error("no retrieval call may run for an undefined tool")
	}
	if len(provider.calls) != 1 {
		t.Errorf("no second completion expected, got %d calls", len(provider.calls))
	}
}

func TestGenerateResponseHonorsOnlyFirstToolCall(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.CompletionResponse{
		{FinishReason: llm.FinishToolCalls, ToolCalls: []llm.ToolCall{
			toolCall(toolSearchFAQs, `{"search_keywords":["donations"]}`),
			toolCall(toolFetchChildren, `{"gender":"female"}`),
		}},
		{FinishReason: llm.FinishStop, Content: "grounded answer"},
	}}
	vectors := &fakeVectors{faqGroups: [][]vectordb.FAQHit{{{ID: 1, Score: 0.9}}}}
	childStore := &fakeChildren{}
	o := newTestOrchestrator(provider, vectors, childStore)

	if _, err := o.GenerateResponse(context.Background(), "s1"); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if vectors.faqCalls != 1 {
		t.Errorf("expected 1 faq search, got %d", vectors.faqCalls)
	}
	if childStore.filterCalls != 0 || vectors.childCalls != 0 {
		t.Error("second requested tool call must be ignored")
	}
}

// --- FAQ retrieval adapter ---

func TestSearchFAQsDedupesAndCaps(t *testing.T) {
	vectors := &fakeVectors{faqGroups: [][]vectordb.FAQHit{
		{{ID: 1, Score: 0.9}, {ID: 2, Score: 0.8}, {ID: 3, Score: 0.7}},
		{{ID: 2, Score: 0.95}, {ID: 4, Score: 0.6}, {ID: 5, Score: 0.5}, {ID: 6, Score: 0.4}},
	}}
	o := newTestOrchestrator(&fakeProvider{}, vectors, &fakeChildren{})

	entries, err := o.searchFAQs(context.Background(), SearchFAQsCall{Keywords: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("searchFAQs: %v", err)
	}

	if len(entries) != 5 {
		t.Fatalf("expected 5 entries after cap, got %d", len(entries))
	}
	seen := map[int64]bool{}
	for _, e := range entries {
		if seen[e.ID] {
			t.Errorf("duplicate faq id %d", e.ID)
		}
		seen[e.ID] = true
	}
	// First occurrence of id 2 carried score 0.8, so id 1 still ranks first.
	if entries[0].ID != 1 {
		t.Errorf("expected id 1 ranked first, got %d", entries[0].ID)
	}
}

// --- Prompt composer ---

func TestComposeRelevantDocs(t *testing.T) {
	prompt := composeRelevantDocs([]faqs.FAQ{
		{ID: 3, Question: "How do I donate?", Answer: "Monthly or once."},
	})

	if !strings.HasPrefix(prompt, faqGroundingPrompt) {
		t.Error("prompt must start with the FAQ grounding instructions")
	}
	for _, want := range []string{"ID: 3", "How do I donate?", "Monthly or once.", "/faqs/3/"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestComposeChildIntroductionFound(t *testing.T) {
	outcome := SearchOutcome{
		Children: []children.Child{testChild(1), testChild(2)},
		Found:    true,
	}
	prompt := composeChildIntroduction(outcome)

	if !strings.Contains(prompt, "2 child(ren)") {
		t.Error("found template should carry the child count")
	}
	if !strings.Contains(prompt, filteredSearchNote) {
		t.Error("expected the filtered-search note without a semantic keyword")
	}
	if !strings.Contains(prompt, childBlockDivider) {
		t.Error("blocks should be joined by the divider")
	}
	if strings.Contains(prompt, "alternative") {
		t.Error("found template must not mention an alternative child")
	}
}

func TestComposeChildIntroductionSemanticNote(t *testing.T) {
	outcome := SearchOutcome{
		Children:        []children.Child{testChild(1)},
		Found:           true,
		SemanticKeyword: "football",
	}
	prompt := composeChildIntroduction(outcome)
	if !strings.Contains(prompt, `"football"`) {
		t.Error("semantic note should quote the keyword")
	}
}

func TestComposeChildIntroductionFallback(t *testing.T) {
	outcome := SearchOutcome{
		Children: []children.Child{testChild(9)},
		Found:    false,
	}
	prompt := composeChildIntroduction(outcome)

	if !strings.Contains(prompt, "couldn't find a child matching") {
		t.Error("fallback template should acknowledge the miss")
	}
	if !strings.Contains(prompt, "Child 9") {
		t.Error("fallback block should carry the substitute child")
	}
}

// --- End-to-end scenario ---

func TestEndToEndFetchChildrenScenario(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.CompletionResponse{
		{FinishReason: llm.FinishToolCalls, ToolCalls: []llm.ToolCall{
			toolCall(toolFetchChildren, `{"gender":"female"}`),
		}},
		{Model: "gpt-test", TotalTokens: 54, FinishReason: llm.FinishStop, Content: "Meet Amara and Mina!"},
	}}
	childStore := &fakeChildren{filterIDs: []int64{4, 8}}
	vectors := &fakeVectors{}

	history := &fakeHistory{msgs: []llm.Message{
		{Role: llm.RoleAssistant, Content: "Hi..."},
		{Role: llm.RoleUser, Content: "Are there any young girls I can sponsor?"},
	}}
	o := New(Deps{
		Provider: provider,
		Model:    "gpt-test",
		History:  history,
		Vectors:  vectors,
		Children: childStore,
		FAQs:     fakeFAQs{},
		RandSeed: 1,
	})

	reply, err := o.GenerateResponse(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}

	if childStore.lastFilter.Gender != "female" {
		t.Errorf("gender filter not applied: %+v", childStore.lastFilter)
	}
	if childStore.lastFilter.Country != "" || childStore.lastFilter.MinAge != nil {
		t.Errorf("unexpected extra constraints: %+v", childStore.lastFilter)
	}
	if vectors.childCalls != 0 {
		t.Error("no semantic search expected without a profile description")
	}

	grounding := provider.calls[1].SystemPrompt
	if !strings.Contains(grounding, "Child 4") || !strings.Contains(grounding, "Child 8") {
		t.Errorf("grounding prompt should list both matched children: %q", grounding)
	}
	if strings.Contains(grounding, "alternative") {
		t.Error("found path must use the found template")
	}
	if reply.Content != "Meet Amara and Mina!" || reply.TotalTokens != 54 {
		t.Errorf("expected second completion verbatim, got %+v", reply)
	}
}
