package driving

import (
	"context"

	"github.com/domainforge/domainforge-core/internal/core/domain"
)

// SearchService is the driving port the HTTP layer and CLI call into for
// the query-side operations.
type SearchService interface {
	Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResponse, error)
	Exact(ctx context.Context, rawDomain string) (domain.ExactResponse, error)
	Bulk(ctx context.Context, limit int, queries []domain.BulkSubQuery) (domain.BulkResponse, error)
}
