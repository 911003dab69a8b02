package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/domainforge/domainforge-core/internal/core/domain"
	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
	"github.com/domainforge/domainforge-core/internal/core/ports/driving"
)

var _ driving.SearchService = (*searchService)(nil)

const resultCacheTTL = 86400 * time.Second

// searchService implements driving.SearchService: keyword retrieval over
// the index engine, domain-specific rescoring, hyphenation partitioning
// and interleaving, and a read-through result cache.
type searchService struct {
	index  driven.IndexEngine
	cache  driven.ResultCache
	logger *slog.Logger
}

// SearchServiceConfig bundles searchService's dependencies.
type SearchServiceConfig struct {
	Index  driven.IndexEngine
	Cache  driven.ResultCache // may be nil: search runs uncached
	Logger *slog.Logger
}

// NewSearchService creates a SearchService. Cache is optional; a nil
// cache makes every search a direct index query.
func NewSearchService(cfg SearchServiceConfig) driving.SearchService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{
		index:  cfg.Index,
		cache:  cfg.Cache,
		logger: logger,
	}
}

// candidate is the per-document accumulator produced by the rescore step,
// before partitioning into hyphenated/non-hyphenated lists.
type candidate struct {
	result     domain.DomainResult
	matchCount int
	bm25       float64
}

// Search tokenizes q, retrieves candidates from the index engine,
// rescores and reorders them by domain-specific signals, and returns a
// page of at most q.Limit results.
func (s *searchService) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResponse, error) {
	elapsed := domain.QueryTimer()

	tokens := tokenizeQuery(q.Q)
	if len(tokens) == 0 {
		return domain.SearchResponse{}, domain.NewError(domain.KindBadRequest, fmt.Errorf("query must contain at least one token"))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	minMatch := q.MinMatch
	if minMatch <= 0 {
		minMatch = domain.DefaultMinMatch
	}
	q.Limit = limit
	q.MinMatch = minMatch

	cacheKey := searchCacheKey(q.Q, q.TLD, limit, minMatch)

	if s.cache != nil {
		if raw, found, err := s.cache.Get(ctx, cacheKey); err != nil {
			s.logger.Warn("result cache read failed, proceeding uncached", "error", err)
		} else if found {
			var cached domain.SearchResponse
			if err := json.Unmarshal(raw, &cached); err != nil {
				s.logger.Warn("result cache deserialize failed, proceeding uncached", "error", err)
			} else {
				cached.Cached = true
				cached.QueryTimeMs = elapsed()
				return cached, nil
			}
		}
	}

	resp, err := s.execute(ctx, tokens, q.TLD, limit, minMatch)
	if err != nil {
		return domain.SearchResponse{}, err
	}
	resp.QueryTimeMs = elapsed()

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err != nil {
			s.logger.Warn("result cache serialize failed, not caching", "error", err)
		} else if err := s.cache.Set(ctx, cacheKey, raw, resultCacheTTL); err != nil {
			s.logger.Warn("result cache write failed", "error", err)
		}
	}

	return resp, nil
}

// execute runs the uncached retrieval/rescore/partition/interleave
// pipeline for an already-parsed query.
func (s *searchService) execute(ctx context.Context, tokens []string, tldFilter string, limit, minMatch int) (domain.SearchResponse, error) {
	candidateLimit := candidateLimitFor(len(tokens), tldFilter != "", limit)

	docs, scores, err := s.index.SearchTokens(ctx, tokens, candidateLimit)
	if err != nil {
		return domain.SearchResponse{}, domain.NewError(domain.KindIndex, err)
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	var hyphenated, plain []candidate
	perfectMatches := 0

	for i, doc := range docs {
		if tldFilter != "" && doc.TLD != tldFilter {
			continue
		}

		matchCount := 0
		seen := make(map[string]struct{}, len(doc.Tokens))
		for _, t := range doc.Tokens {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if _, ok := tokenSet[t]; ok {
				matchCount++
			}
		}
		if matchCount < minMatch {
			continue
		}

		c := candidate{
			result:     domain.NewDomainResult(doc.DomainExact, doc.Label, doc.Len, doc.HasHyphen),
			matchCount: matchCount,
			bm25:       scores[i],
		}

		if matchCount == len(tokens) {
			perfectMatches++
		}

		if doc.HasHyphen {
			hyphenated = append(hyphenated, c)
		} else {
			plain = append(plain, c)
		}

		if perfectMatches >= 2*limit {
			break
		}
	}

	sortCandidates(hyphenated)
	sortCandidates(plain)

	totalCandidates := len(hyphenated) + len(plain)
	results := interleave(hyphenated, plain, limit)

	return domain.SearchResponse{
		Results:         results,
		TotalCandidates: totalCandidates,
	}, nil
}

// sortCandidates orders in place by match_count desc, len asc, bm25 desc.
func sortCandidates(c []candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].matchCount != c[j].matchCount {
			return c[i].matchCount > c[j].matchCount
		}
		if c[i].result.Len != c[j].result.Len {
			return c[i].result.Len < c[j].result.Len
		}
		return c[i].bm25 > c[j].bm25
	})
}

// interleave alternates hyphenated, then non-hyphenated entries until
// limit results are produced or both lists are exhausted, continuing
// from whichever list remains once the other empties.
func interleave(hyphenated, plain []candidate, limit int) []domain.DomainResult {
	results := make([]domain.DomainResult, 0, limit)
	hi, pi := 0, 0
	drawHyphenated := true

	for len(results) < limit && (hi < len(hyphenated) || pi < len(plain)) {
		if drawHyphenated && hi < len(hyphenated) {
			results = append(results, withMatchCount(hyphenated[hi]))
			hi++
		} else if !drawHyphenated && pi < len(plain) {
			results = append(results, withMatchCount(plain[pi]))
			pi++
		} else if hi < len(hyphenated) {
			results = append(results, withMatchCount(hyphenated[hi]))
			hi++
		} else if pi < len(plain) {
			results = append(results, withMatchCount(plain[pi]))
			pi++
		}
		drawHyphenated = !drawHyphenated
	}
	return results
}

func withMatchCount(c candidate) domain.DomainResult {
	r := c.result
	r.MatchCount = c.matchCount
	r.Score = c.bm25
	return r
}

// candidateLimitFor implements the tokens/tld-filter -> candidate_limit
// lookup table: a larger multiplier for multi-token queries to absorb
// partial-match noise, and a larger ceiling when a tld filter will
// discard a fraction of what's retrieved.
func candidateLimitFor(numTokens int, hasTLDFilter bool, limit int) int {
	multiplier := 20
	if numTokens >= 2 {
		multiplier = 50
	}
	ceiling := 1000
	if hasTLDFilter {
		ceiling = 3000
	}
	return min(multiplier*limit, ceiling)
}

// tokenizeQuery lowercases and splits q on whitespace, discarding empty
// pieces.
func tokenizeQuery(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	return fields
}

// searchCacheKey builds the read-through cache key:
// "search:" + q + "|" + (tld or "any") + "|" + limit + "|" + min_match.
func searchCacheKey(q, tld string, limit, minMatch int) string {
	tldPart := tld
	if tldPart == "" {
		tldPart = "any"
	}
	var b strings.Builder
	b.WriteString("search:")
	b.WriteString(q)
	b.WriteByte('|')
	b.WriteString(tldPart)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(limit))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(minMatch))
	return b.String()
}

// Exact performs a normalized, single-document lookup by domain_exact.
func (s *searchService) Exact(ctx context.Context, rawDomain string) (domain.ExactResponse, error) {
	elapsed := domain.QueryTimer()

	normalized, err := domain.Normalize(rawDomain)
	if err != nil {
		return domain.ExactResponse{}, err
	}

	doc, err := s.index.GetExact(ctx, normalized.DomainExact)
	if err != nil {
		return domain.ExactResponse{}, domain.NewError(domain.KindIndex, err)
	}
	if doc == nil {
		return domain.ExactResponse{Found: false, QueryTimeMs: elapsed()}, nil
	}

	result := domain.NewDomainResult(doc.DomainExact, doc.Label, doc.Len, doc.HasHyphen)
	result.MatchCount = len(doc.Tokens)
	return domain.ExactResponse{Found: true, Domain: &result, QueryTimeMs: elapsed()}, nil
}

// Bulk runs up to BulkQueryCap sub-queries sequentially, isolating a
// failing sub-query to an empty result rather than aborting the batch.
func (s *searchService) Bulk(ctx context.Context, limit int, queries []domain.BulkSubQuery) (domain.BulkResponse, error) {
	elapsed := domain.QueryTimer()

	if len(queries) == 0 {
		return domain.BulkResponse{}, domain.NewError(domain.KindBadRequest, fmt.Errorf("bulk search requires at least one query"))
	}
	if len(queries) > domain.BulkQueryCap {
		return domain.BulkResponse{}, domain.NewError(domain.KindBadRequest, fmt.Errorf("bulk search accepts at most %d queries", domain.BulkQueryCap))
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	results := make([]domain.SearchResponse, 0, len(queries))
	for _, sub := range queries {
		resp, err := s.Search(ctx, domain.SearchQuery{Q: sub.Q, TLD: sub.TLD, Limit: limit, MinMatch: sub.MinMatch})
		if err != nil {
			s.logger.Warn("bulk sub-query failed", "q", sub.Q, "error", err)
			resp = domain.SearchResponse{}
		}
		results = append(results, resp)
	}

	return domain.BulkResponse{Results: results, TotalTimeMs: elapsed()}, nil
}
