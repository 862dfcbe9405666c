package brain

import "context"

// Question carries one user message plus the jurisdiction context that
// scopes the backend's retrieval.
type Question struct {
	Message       string
	Language      string
	Country       string
	Province      string
	LawCategory   string
	LawType       string
	Jurisdiction  string
	OffenceNumber string
	TopK          int
}

// Citation references a source document backing part of an answer.
type Citation struct {
	Filename string   `json:"filename"`
	Page     *int     `json:"page,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// Answer is the validated success variant of a backend response.
type Answer struct {
	Text       string
	Citations  []Citation
	ChunksUsed int
	Confidence *float64
}

// Provider answers legal questions. Implementations must return an error
// for anything that is not a well-formed success response; callers never
// see half-decoded payloads.
type Provider interface {
	Ask(ctx context.Context, q Question) (*Answer, error)
}
