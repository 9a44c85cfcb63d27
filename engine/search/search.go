// Package search turns a free-text query into ranked place results.
// It embeds the query, asks a vector index for the nearest neighbours and
// maps the returned metadata into Result records.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrMissingQuery is returned when the query is empty. No provider is called.
var ErrMissingQuery = errors.New("missing query")

// Embedder converts text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index returns the topK nearest matches for a vector, metadata included.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// Service is the query-to-results pipeline.
type Service struct {
	embed  Embedder
	index  Index
	logger *slog.Logger
}

// New creates a Service. The embedder and index are shared across requests.
func New(embed Embedder, index Index, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embed: embed, index: index, logger: logger}
}

// Search embeds query and returns up to TopK results in index order.
func (s *Service) Search(ctx context.Context, query string) ([]Result, error) {
	if query == "" {
		return nil, ErrMissingQuery
	}

	vector, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}

	matches, err := s.index.Query(ctx, vector, TopK)
	if err != nil {
		return nil, fmt.Errorf("search: query index: %w", err)
	}
	s.logger.Debug("search done", "query_len", len(query), "dims", len(vector), "matches", len(matches))

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = NewResult(m)
	}
	return results, nil
}
