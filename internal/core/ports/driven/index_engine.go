package driven

import (
	"context"

	"github.com/domainforge/domainforge-core/internal/core/domain"
)

// IndexEngine is the "assumed primitive" inverted-index engine: term
// queries, boolean composition, BM25-style scoring, top-K collection,
// delete-by-term, bounded-heap write buffers, and periodic commit. The
// core treats it as a black box; any engine providing these semantics
// is acceptable.
type IndexEngine interface {
	// AddDocument stages a document for writing. Durable and visible to
	// readers only after the next Commit.
	AddDocument(ctx context.Context, doc domain.Document) error

	// DeleteByExact stages removal of the document with the given
	// DomainExact key. A no-op if no such document exists.
	DeleteByExact(ctx context.Context, domainExact string) error

	// Commit makes prior AddDocument/DeleteByExact calls durable and
	// visible to future readers.
	Commit(ctx context.Context) error

	// SearchTokens runs a boolean-OR query over the tokens field for the
	// given terms and returns up to candidateLimit candidates ordered by
	// descending BM25 score.
	SearchTokens(ctx context.Context, tokens []string, candidateLimit int) ([]domain.Document, []float64, error)

	// GetExact fetches the document with the given DomainExact key, if any.
	GetExact(ctx context.Context, domainExact string) (*domain.Document, error)

	// Count returns the total number of live documents.
	Count(ctx context.Context) (uint64, error)

	// Optimize compacts on-disk segments. Best-effort; a no-op is a valid
	// implementation.
	Optimize(ctx context.Context) error

	// HealthCheck verifies the index engine is available.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the engine.
	Close() error
}
