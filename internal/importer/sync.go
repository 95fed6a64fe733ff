package importer

import (
	"context"
	"fmt"

	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
	"github.com/charitybridge/nico/internal/progress"
	"github.com/charitybridge/nico/internal/vectordb"
)

// Syncer rebuilds the vector collections from the datastore.
type Syncer struct {
	children *children.Store
	faqs     *faqs.Store
	vectors  *vectordb.Store
	reporter progress.Reporter
}

// NewSyncer creates a Syncer. A nil reporter disables progress output.
func NewSyncer(childStore *children.Store, faqStore *faqs.Store, vectors *vectordb.Store, reporter progress.Reporter) *Syncer {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	return &Syncer{children: childStore, faqs: faqStore, vectors: vectors, reporter: reporter}
}

// Sync embeds and indexes every FAQ entry and child profile, then
// persists the collections to dataDir.
func (s *Syncer) Sync(ctx context.Context, dataDir string) error {
	allFAQs, err := s.faqs.All(ctx)
	if err != nil {
		return fmt.Errorf("loading faqs: %w", err)
	}
	profiles, err := s.children.AllProfiles(ctx)
	if err != nil {
		return fmt.Errorf("loading child profiles: %w", err)
	}

	s.reporter.Start(len(allFAQs) + len(profiles))
	done := 0

	faqDocs := make([]vectordb.FAQDoc, len(allFAQs))
	for i, f := range allFAQs {
		faqDocs[i] = vectordb.FAQDoc{ID: f.ID, Question: f.Question, Answer: f.Answer}
	}
	if err := s.vectors.IndexFAQs(ctx, faqDocs); err != nil {
		return fmt.Errorf("indexing faqs: %w", err)
	}
	done += len(faqDocs)
	s.reporter.Update(done, "faqs indexed")

	childDocs := make([]vectordb.ChildDoc, 0, len(profiles))
	for id, profile := range profiles {
		childDocs = append(childDocs, vectordb.ChildDoc{ID: id, Profile: profile})
	}
	if err := s.vectors.IndexChildren(ctx, childDocs); err != nil {
		return fmt.Errorf("indexing child profiles: %w", err)
	}
	done += len(childDocs)
	s.reporter.Update(done, "child profiles indexed")

	if err := s.vectors.Persist(ctx, dataDir); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}
	s.reporter.Finish()
	return nil
}
