package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/domainforge/domainforge-core/internal/adapters/driven/zonefile"
	"github.com/domainforge/domainforge-core/internal/core/domain"
	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
	"github.com/domainforge/domainforge-core/internal/core/ports/driving"
)

var _ driving.IngestService = (*ingestService)(nil)

const (
	defaultWordBatchSize  = 500
	defaultCommitInterval = 1_000_000
	writerLockName        = "domainforge:writer"
	writerLockTTL         = 10 * time.Minute
	writerLockExtendEvery = writerLockTTL / 2
)

// ingestService implements driving.IngestService: the full-build and
// daily-delta pipelines described in the indexer design, each guarded by
// a writer-exclusivity lock so at most one mutating run touches the
// index at a time.
type ingestService struct {
	index     driven.IndexEngine
	segmenter driven.Segmenter
	lock      driven.DistributedLock
	logger    *slog.Logger
}

// IngestServiceConfig bundles ingestService's dependencies.
type IngestServiceConfig struct {
	Index     driven.IndexEngine
	Segmenter driven.Segmenter
	Lock      driven.DistributedLock
	Logger    *slog.Logger
}

// NewIngestService creates an IngestService.
func NewIngestService(cfg IngestServiceConfig) driving.IngestService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestService{
		index:     cfg.Index,
		segmenter: cfg.Segmenter,
		lock:      cfg.Lock,
		logger:    logger,
	}
}

// withWriterLock acquires the single writer-exclusivity lock for the
// duration of fn, preventing a full build and a daily delta (or two
// daily deltas) from mutating the index concurrently. A full build over
// a large zone file can easily run past writerLockTTL, so a background
// ticker pushes the TTL back out every writerLockExtendEvery for as long
// as fn is still running.
func (s *ingestService) withWriterLock(ctx context.Context, fn func() (driving.IngestStats, error)) (driving.IngestStats, error) {
	acquired, err := s.lock.Acquire(ctx, writerLockName, writerLockTTL)
	if err != nil {
		return driving.IngestStats{}, domain.NewError(domain.KindIo, fmt.Errorf("acquire writer lock: %w", err))
	}
	if !acquired {
		return driving.IngestStats{}, domain.NewError(domain.KindIo, fmt.Errorf("writer lock held by another run"))
	}

	stopExtending := make(chan struct{})
	extendDone := make(chan struct{})
	go func() {
		defer close(extendDone)
		ticker := time.NewTicker(writerLockExtendEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stopExtending:
				return
			case <-ticker.C:
				if err := s.lock.Extend(ctx, writerLockName, writerLockTTL); err != nil {
					s.logger.Warn("failed to extend writer lock", "error", err)
				}
			}
		}
	}()

	defer func() {
		close(stopExtending)
		<-extendDone
		if err := s.lock.Release(ctx, writerLockName); err != nil {
			s.logger.Warn("failed to release writer lock", "error", err)
		}
	}()
	return fn()
}

// FullBuild streams opts.InputPath, normalizing, filtering, segmenting,
// and indexing in batches of opts.WordBatchSize, committing every
// opts.CommitInterval documents and once more at the end.
func (s *ingestService) FullBuild(ctx context.Context, opts driving.FullBuildOptions) (driving.IngestStats, error) {
	return s.withWriterLock(ctx, func() (driving.IngestStats, error) {
		wordBatchSize := opts.WordBatchSize
		if wordBatchSize <= 0 {
			wordBatchSize = defaultWordBatchSize
		}
		commitInterval := opts.CommitInterval
		if commitInterval <= 0 {
			commitInterval = defaultCommitInterval
		}

		total, err := zonefile.Count(opts.InputPath)
		if err != nil {
			return driving.IngestStats{}, err
		}
		s.logger.Info("full build starting", "input", opts.InputPath, "estimated_count", total)

		stream, err := zonefile.OpenStream(opts.InputPath)
		if err != nil {
			return driving.IngestStats{}, err
		}
		defer stream.Close()

		batcher := zonefile.NewBatch(stream, wordBatchSize)

		var stats driving.IngestStats
		indexedSinceCommit := 0

		for {
			lines, ok := batcher.Next()
			if !ok {
				break
			}
			added, err := s.indexBatch(ctx, lines, &stats)
			if err != nil {
				return stats, err
			}
			indexedSinceCommit += added

			if indexedSinceCommit >= commitInterval {
				if err := s.index.Commit(ctx); err != nil {
					return stats, domain.NewError(domain.KindIndex, err)
				}
				indexedSinceCommit = 0
			}
		}
		if err := batcher.Err(); err != nil {
			return stats, err
		}

		if err := s.index.Commit(ctx); err != nil {
			return stats, domain.NewError(domain.KindIndex, err)
		}

		s.logger.Info("full build complete",
			"processed", stats.Processed, "added", stats.Added,
			"rejected", stats.Rejected, "filtered", stats.Filtered,
			"segment_errors", stats.SegmentErrors)
		return stats, nil
	})
}

// DailyDelta applies opts.RemovalsPath (if set) via delete_by_term, then
// opts.AdditionsPath (if set) via the same normalize/filter/segment/index
// procedure as FullBuild, with each addition preceded by a delete of its
// domain_exact key for idempotent replace semantics.
func (s *ingestService) DailyDelta(ctx context.Context, opts driving.DailyDeltaOptions) (driving.IngestStats, error) {
	return s.withWriterLock(ctx, func() (driving.IngestStats, error) {
		wordBatchSize := opts.WordBatchSize
		if wordBatchSize <= 0 {
			wordBatchSize = defaultWordBatchSize
		}

		var stats driving.IngestStats

		if opts.RemovalsPath != "" {
			if err := s.applyRemovals(ctx, opts.RemovalsPath, &stats); err != nil {
				return stats, err
			}
		}

		if opts.AdditionsPath != "" {
			stream, err := zonefile.OpenStream(opts.AdditionsPath)
			if err != nil {
				return stats, err
			}
			defer stream.Close()

			batcher := zonefile.NewBatch(stream, wordBatchSize)
			for {
				lines, ok := batcher.Next()
				if !ok {
					break
				}
				if _, err := s.indexBatchReplace(ctx, lines, &stats); err != nil {
					return stats, err
				}
			}
			if err := batcher.Err(); err != nil {
				return stats, err
			}
		}

		if err := s.index.Commit(ctx); err != nil {
			return stats, domain.NewError(domain.KindIndex, err)
		}

		s.logger.Info("daily delta complete",
			"processed", stats.Processed, "added", stats.Added, "removed", stats.Removed,
			"rejected", stats.Rejected, "filtered", stats.Filtered,
			"segment_errors", stats.SegmentErrors)
		return stats, nil
	})
}

// applyRemovals normalizes each removals line and issues DeleteByExact;
// lines that fail normalization are discarded, not counted as errors.
func (s *ingestService) applyRemovals(ctx context.Context, path string, stats *driving.IngestStats) error {
	stream, err := zonefile.OpenStream(path)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		line, ok := stream.Next()
		if !ok {
			break
		}
		normalized, err := domain.Normalize(line)
		if err != nil {
			continue
		}
		if err := s.index.DeleteByExact(ctx, normalized.DomainExact); err != nil {
			return domain.NewError(domain.KindIndex, err)
		}
		stats.Removed++
	}
	return stream.Err()
}

// indexBatch runs the normalize/filter/segment/add procedure for one
// batch of raw lines, returning the number of documents added.
func (s *ingestService) indexBatch(ctx context.Context, lines []string, stats *driving.IngestStats) (int, error) {
	normalized := s.normalizeAndFilter(lines, stats)
	s.attachTokens(ctx, normalized, stats)

	for _, n := range normalized {
		if err := s.index.AddDocument(ctx, n.ToDocument()); err != nil {
			return 0, domain.NewError(domain.KindIndex, err)
		}
		stats.Added++
	}
	return len(normalized), nil
}

// indexBatchReplace is indexBatch with a DeleteByExact preceding each
// AddDocument, enforcing at most one live document per domain_exact.
func (s *ingestService) indexBatchReplace(ctx context.Context, lines []string, stats *driving.IngestStats) (int, error) {
	normalized := s.normalizeAndFilter(lines, stats)
	s.attachTokens(ctx, normalized, stats)

	for _, n := range normalized {
		if err := s.index.DeleteByExact(ctx, n.DomainExact); err != nil {
			return 0, domain.NewError(domain.KindIndex, err)
		}
		if err := s.index.AddDocument(ctx, n.ToDocument()); err != nil {
			return 0, domain.NewError(domain.KindIndex, err)
		}
		stats.Added++
	}
	return len(normalized), nil
}

// normalizeAndFilter normalizes each raw line, discarding invalid
// domains and filtered labels, tallying both into stats.
func (s *ingestService) normalizeAndFilter(lines []string, stats *driving.IngestStats) []domain.NormalizedDomain {
	survivors := make([]domain.NormalizedDomain, 0, len(lines))
	for _, line := range lines {
		stats.Processed++

		n, err := domain.Normalize(line)
		if err != nil {
			stats.Rejected++
			continue
		}
		if domain.ShouldFilter(n.Label) {
			stats.Filtered++
			continue
		}
		survivors = append(survivors, n)
	}
	return survivors
}

// attachTokens calls segment_batch over the surviving labels and pairs
// results positionally back onto normalized, per the residual-tail
// tolerance rule: a short response updates only its prefix, the
// remainder keeps empty tokens and is still indexed.
func (s *ingestService) attachTokens(ctx context.Context, normalized []domain.NormalizedDomain, stats *driving.IngestStats) {
	if len(normalized) == 0 {
		return
	}

	labels := make([]string, len(normalized))
	for i, n := range normalized {
		labels[i] = n.Label
	}

	results, err := s.segmenter.SegmentBatch(ctx, labels)
	if err != nil {
		s.logger.Warn("segment_batch failed, continuing with empty tokens", "error", err)
		stats.SegmentErrors++
		return
	}

	for i := 0; i < len(results) && i < len(normalized); i++ {
		normalized[i].Tokens = results[i].Tokens
	}
}

// Stats reports administrative counters for the /stats endpoint.
func (s *ingestService) Stats(ctx context.Context) (map[string]any, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindIndex, err)
	}
	return map[string]any{
		"document_count": count,
	}, nil
}

// Optimize triggers the index engine's best-effort segment compaction.
func (s *ingestService) Optimize(ctx context.Context) error {
	if err := s.index.Optimize(ctx); err != nil {
		return domain.NewError(domain.KindIndex, err)
	}
	return nil
}
