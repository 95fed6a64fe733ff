package vectordb

// FAQDoc is the indexable form of an FAQ entry. Question and answer are
// embedded separately so hybrid search can weigh them independently.
type FAQDoc struct {
	ID       int64
	Question string
	Answer   string
}

// ChildDoc is the indexable form of a child's profile description.
type ChildDoc struct {
	ID      int64
	Profile string
}

// FAQHit is one ranked FAQ result. Score is the blended question/answer
// similarity, used only for ranking and dedup, never shown to users.
type FAQHit struct {
	ID    int64
	Score float32
}
