package types

// ScoredTransaction is a search result: a transaction and its cosine similarity to the query
type ScoredTransaction struct {
	EmbeddedTransaction
	Similarity float64 `json:"similarity"`
}
