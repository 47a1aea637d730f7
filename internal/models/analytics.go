package models

// ScoredSentence is one selected summary sentence with its position in the document.
type ScoredSentence struct {
	Index    int     `json:"index"`
	Sentence string  `json:"sentence"`
	Score    float64 `json:"score"`
}

// Summary is an extractive summary. Sentences are in original document order.
type Summary struct {
	DocumentID int64            `json:"document_id"`
	Sentences  []ScoredSentence `json:"sentences"`
}

// Indices returns the selected sentence indices in original order.
func (s *Summary) Indices() []int {
	out := make([]int, len(s.Sentences))
	for i, sent := range s.Sentences {
		out[i] = sent.Index
	}
	return out
}

// Scores returns the scores parallel to Indices.
func (s *Summary) Scores() []float64 {
	out := make([]float64, len(s.Sentences))
	for i, sent := range s.Sentences {
		out[i] = sent.Score
	}
	return out
}

// SharedTerm is a term weighted in both compared documents.
type SharedTerm struct {
	Term   string  `json:"term"`
	ScoreA float64 `json:"score_a"`
	ScoreB float64 `json:"score_b"`
}

// TermScore is a term weighted in only one compared document.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Comparison is the result of comparing two documents.
type Comparison struct {
	DocumentA  int64        `json:"document_a"`
	DocumentB  int64        `json:"document_b"`
	Similarity float64      `json:"similarity"`
	Shared     []SharedTerm `json:"shared"`
	UniqueA    []TermScore  `json:"unique_a"`
	UniqueB    []TermScore  `json:"unique_b"`
}

// GraphNode is a document in the similarity graph.
type GraphNode struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// GraphEdge joins two documents whose similarity reaches the threshold. FromID < ToID.
type GraphEdge struct {
	FromID int64   `json:"from_id"`
	ToID   int64   `json:"to_id"`
	Weight float64 `json:"weight"`
}

// Graph is the similarity graph over one corpus.
type Graph struct {
	Threshold float64     `json:"threshold"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
}
