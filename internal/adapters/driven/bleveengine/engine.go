// Package bleveengine implements the driven.IndexEngine port (spec §4.3)
// over github.com/blevesearch/bleve/v2, the one real embeddable
// full-text search library present in the retrieved example corpus.
package bleveengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/domainforge/domainforge-core/internal/core/domain"
	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
)

var _ driven.IndexEngine = (*Engine)(nil)

// storedFields are requested on every query/fetch so candidates can be
// rescored without a second round trip.
var storedFields = []string{"domain_exact", "tokens", "label", "len", "has_hyphen"}

// Engine adapts a single bleve.Index to the IndexEngine port. Writes are
// staged into an internal batch and only become durable/visible on
// Commit, mirroring the bounded-heap write buffer semantics spec §4.3
// assumes of the index engine.
type Engine struct {
	mu    sync.Mutex
	index bleve.Index
	batch *bleve.Batch
}

// Open creates a new index at path if none exists, or opens the existing
// one. heapBytes is accepted for interface parity with the assumed
// primitive's "bounded-heap write buffer sized by an implementation
// budget"; bleve manages its own write buffering internally and does not
// expose a heap-size knob, so the value is neither applied nor kept (see
// DESIGN.md).
func Open(path string, heapBytes int64) (*Engine, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		im, mapErr := buildMapping()
		if mapErr != nil {
			return nil, fmt.Errorf("building index mapping: %w", mapErr)
		}
		index, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, fmt.Errorf("opening index at %s: %w", path, err)
	}

	return &Engine{index: index, batch: index.NewBatch()}, nil
}

func toIndexable(doc domain.Document) indexable {
	hasHyphen := 0.0
	if doc.HasHyphen {
		hasHyphen = 1.0
	}
	return indexable{
		DomainExact: doc.DomainExact,
		Tokens:      doc.Tokens,
		Label:       doc.Label,
		Len:         float64(doc.Len),
		HasHyphen:   hasHyphen,
	}
}

func (e *Engine) AddDocument(_ context.Context, doc domain.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batch.Index(doc.DomainExact, toIndexable(doc))
}

func (e *Engine) DeleteByExact(_ context.Context, domainExact string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batch.Delete(domainExact)
	return nil
}

func (e *Engine) Commit(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.batch.Size() == 0 {
		return nil
	}
	if err := e.index.Batch(e.batch); err != nil {
		return domain.NewError(domain.KindIndex, fmt.Errorf("committing batch: %w", err))
	}
	e.batch = e.index.NewBatch()
	return nil
}

func (e *Engine) SearchTokens(ctx context.Context, tokens []string, candidateLimit int) ([]domain.Document, []float64, error) {
	queries := make([]bleve.Query, 0, len(tokens))
	for _, t := range tokens {
		tq := bleve.NewTermQuery(t)
		tq.SetField("tokens")
		queries = append(queries, tq)
	}
	disjunction := bleve.NewDisjunctionQuery(queries...)

	req := bleve.NewSearchRequestOptions(disjunction, candidateLimit, 0, false)
	req.Fields = storedFields

	result, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, nil, domain.NewError(domain.KindIndex, fmt.Errorf("search: %w", err))
	}

	docs := make([]domain.Document, 0, len(result.Hits))
	scores := make([]float64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		docs = append(docs, documentFromHitFields(hit.ID, hit.Fields))
		scores = append(scores, hit.Score)
	}
	return docs, scores, nil
}

func (e *Engine) GetExact(ctx context.Context, domainExact string) (*domain.Document, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery([]string{domainExact}), 1, 0, false)
	req.Fields = storedFields

	result, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, domain.NewError(domain.KindIndex, fmt.Errorf("exact lookup: %w", err))
	}
	if len(result.Hits) == 0 {
		return nil, nil
	}
	doc := documentFromHitFields(result.Hits[0].ID, result.Hits[0].Fields)
	return &doc, nil
}

func documentFromHitFields(id string, fields map[string]interface{}) domain.Document {
	doc := domain.Document{DomainExact: id}
	if v, ok := fields["label"].(string); ok {
		doc.Label = v
	}
	if v, ok := fields["len"].(float64); ok {
		doc.Len = int(v)
	}
	if v, ok := fields["has_hyphen"].(float64); ok {
		doc.HasHyphen = v != 0
	}
	switch v := fields["tokens"].(type) {
	case string:
		doc.Tokens = []string{v}
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok {
				doc.Tokens = append(doc.Tokens, s)
			}
		}
	}
	if dot := lastDot(id); dot >= 0 {
		doc.TLD = id[dot+1:]
	}
	return doc
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func (e *Engine) Count(_ context.Context) (uint64, error) {
	count, err := e.index.DocCount()
	if err != nil {
		return 0, domain.NewError(domain.KindIndex, err)
	}
	return count, nil
}

// Optimize flushes any pending batch. bleve's scorch backend manages its
// own segment merging internally with no exposed trigger, the same
// position original_source's optimize_index ends up in (there too it
// reduces to a commit); see DESIGN.md.
func (e *Engine) Optimize(ctx context.Context) error {
	return e.Commit(ctx)
}

func (e *Engine) HealthCheck(_ context.Context) error {
	if e.index == nil {
		return domain.NewError(domain.KindIndex, fmt.Errorf("index not open"))
	}
	_, err := e.index.DocCount()
	if err != nil {
		return domain.NewError(domain.KindIndex, err)
	}
	return nil
}

func (e *Engine) Close() error {
	return e.index.Close()
}
