package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/charitybridge/nico/internal/embeddings"
)

const (
	faqQuestionCollection  = "faq-questions"
	faqAnswerCollection    = "faq-answers"
	childProfileCollection = "child-profiles"
)

// Default hybrid blend: question similarity dominates answer similarity.
// The pair is configurable through WithHybridWeights; the two values
// should sum to 1.
const (
	DefaultQuestionWeight = 0.7
	DefaultAnswerWeight   = 0.3
)

// Store holds the site's vector collections: FAQ questions, FAQ answers,
// and child profile descriptions, all backed by chromem-go.
type Store struct {
	db            *chromem.DB
	faqQuestions  *chromem.Collection
	faqAnswers    *chromem.Collection
	childProfiles *chromem.Collection
	embedder      embeddings.Embedder
	embedFunc     chromem.EmbeddingFunc

	questionWeight float32
	answerWeight   float32
}

// Option configures a Store.
type Option func(*Store)

// WithHybridWeights overrides the question/answer blend weights used by
// hybrid FAQ search.
func WithHybridWeights(question, answer float32) Option {
	return func(s *Store) {
		s.questionWeight = question
		s.answerWeight = answer
	}
}

// NewStore creates a new in-memory Store.
func NewStore(embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	s := &Store{
		db:             chromem.NewDB(),
		embedder:       embedder,
		embedFunc:      embeddings.ToChromemFunc(embedder),
		questionWeight: DefaultQuestionWeight,
		answerWeight:   DefaultAnswerWeight,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.faqQuestions, err = s.db.GetOrCreateCollection(faqQuestionCollection, nil, s.embedFunc); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", faqQuestionCollection, err)
	}
	if s.faqAnswers, err = s.db.GetOrCreateCollection(faqAnswerCollection, nil, s.embedFunc); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", faqAnswerCollection, err)
	}
	if s.childProfiles, err = s.db.GetOrCreateCollection(childProfileCollection, nil, s.embedFunc); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", childProfileCollection, err)
	}

	return s, nil
}

// IndexFAQs adds or updates FAQ entries in both FAQ collections.
func (s *Store) IndexFAQs(ctx context.Context, docs []FAQDoc) error {
	if len(docs) == 0 {
		return nil
	}

	questions := make([]chromem.Document, len(docs))
	answers := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		id := strconv.FormatInt(doc.ID, 10)
		questions[i] = chromem.Document{ID: id, Content: doc.Question}
		answers[i] = chromem.Document{ID: id, Content: doc.Answer}
	}

	if err := s.faqQuestions.AddDocuments(ctx, questions, 1); err != nil {
		return fmt.Errorf("indexing faq questions: %w", err)
	}
	if err := s.faqAnswers.AddDocuments(ctx, answers, 1); err != nil {
		return fmt.Errorf("indexing faq answers: %w", err)
	}
	return nil
}

// IndexChildren adds or updates child profile descriptions.
func (s *Store) IndexChildren(ctx context.Context, docs []ChildDoc) error {
	if len(docs) == 0 {
		return nil
	}

	profiles := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		profiles[i] = chromem.Document{
			ID:      strconv.FormatInt(doc.ID, 10),
			Content: doc.Profile,
		}
	}

	if err := s.childProfiles.AddDocuments(ctx, profiles, 1); err != nil {
		return fmt.Errorf("indexing child profiles: %w", err)
	}
	return nil
}

// SearchFAQHybrid runs one hybrid search per keyword and returns one
// ranked hit group per keyword. Within a group, each FAQ's score blends
// its question and answer similarity by the configured weights; an FAQ
// missing from one side contributes zero for that side.
func (s *Store) SearchFAQHybrid(ctx context.Context, keywords []string, topK int) ([][]FAQHit, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}

	vectors, err := s.embedder.Embed(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("embedding faq keywords: %w", err)
	}

	groups := make([][]FAQHit, 0, len(vectors))
	for _, vec := range vectors {
		scores := make(map[int64]float32)

		qHits, err := s.queryCollection(ctx, s.faqQuestions, vec, topK)
		if err != nil {
			return nil, fmt.Errorf("faq question search: %w", err)
		}
		for _, h := range qHits {
			scores[h.ID] += s.questionWeight * h.Score
		}

		aHits, err := s.queryCollection(ctx, s.faqAnswers, vec, topK)
		if err != nil {
			return nil, fmt.Errorf("faq answer search: %w", err)
		}
		for _, h := range aHits {
			scores[h.ID] += s.answerWeight * h.Score
		}

		group := make([]FAQHit, 0, len(scores))
		for id, score := range scores {
			group = append(group, FAQHit{ID: id, Score: score})
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].Score != group[j].Score {
				return group[i].Score > group[j].Score
			}
			return group[i].ID < group[j].ID
		})
		if len(group) > topK {
			group = group[:topK]
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// SearchChildProfiles returns ranked child ids by profile similarity,
// most relevant first.
func (s *Store) SearchChildProfiles(ctx context.Context, text string, topK int) ([]int64, error) {
	if topK <= 0 {
		topK = 5
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding profile query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	hits, err := s.queryCollection(ctx, s.childProfiles, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("child profile search: %w", err)
	}

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids, nil
}

// queryCollection runs a single embedding query, clamping the result
// count to the collection size as chromem-go requires.
func (s *Store) queryCollection(ctx context.Context, col *chromem.Collection, vec []float32, limit int) ([]FAQHit, error) {
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := col.QueryEmbedding(ctx, vec, limit, nil, nil)
	if err != nil {
		return nil, err
	}

	hits := make([]FAQHit, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric document id %q: %w", r.ID, err)
		}
		hits = append(hits, FAQHit{ID: id, Score: r.Similarity})
	}
	return hits, nil
}

// FAQCount returns the number of indexed FAQ entries.
func (s *Store) FAQCount() int { return s.faqQuestions.Count() }

// ChildCount returns the number of indexed child profiles.
func (s *Store) ChildCount() int { return s.childProfiles.Count() }

// Persist saves the store's collections to the given directory.
func (s *Store) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(dir+"/vectors.gob.gz", true, "")
}

// Load restores the store's collections from the given directory.
func (s *Store) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(dir+"/vectors.gob.gz", ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection references after import.
	for _, c := range []struct {
		name string
		dst  **chromem.Collection
	}{
		{faqQuestionCollection, &s.faqQuestions},
		{faqAnswerCollection, &s.faqAnswers},
		{childProfileCollection, &s.childProfiles},
	} {
		col := s.db.GetCollection(c.name, s.embedFunc)
		if col == nil {
			return fmt.Errorf("collection %q not found after import", c.name)
		}
		*c.dst = col
	}
	return nil
}
