// Package bdd runs the Gherkin scenarios under features/ against the
// real domain, services, and bleveengine packages, the way godog suites
// drive production code elsewhere in the ecosystem: no mocks, a fresh
// index per scenario.
package bdd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/domainforge/domainforge-core/internal/adapters/driven/bleveengine"
	"github.com/domainforge/domainforge-core/internal/adapters/driven/locallock"
	"github.com/domainforge/domainforge-core/internal/core/domain"
	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
	"github.com/domainforge/domainforge-core/internal/core/ports/driving"
	"github.com/domainforge/domainforge-core/internal/core/services"
)

type identitySegmenter struct{}

func (identitySegmenter) SegmentBatch(_ context.Context, labels []string) ([]driven.LabelTokens, error) {
	out := make([]driven.LabelTokens, len(labels))
	for i, l := range labels {
		out[i] = driven.LabelTokens{Label: l}
	}
	return out, nil
}

type suite struct {
	tmpDir string

	normalized domain.NormalizedDomain
	normErr    error

	index     *bleveengine.Engine
	searchSvc driving.SearchService

	searchResp domain.SearchResponse
	searchErr  error

	bulkErr error
}

func (s *suite) ensureIndex() error {
	if s.index != nil {
		return nil
	}
	idx, err := bleveengine.Open(filepath.Join(s.tmpDir, "idx.bleve"), 64<<20)
	if err != nil {
		return err
	}
	s.index = idx
	s.searchSvc = services.NewSearchService(services.SearchServiceConfig{Index: idx})
	return nil
}

func (s *suite) iNormalize(raw string) error {
	s.normalized, s.normErr = domain.Normalize(raw)
	return nil
}

func (s *suite) theExactFormIs(want string) error {
	if s.normErr != nil {
		return fmt.Errorf("normalize failed: %w", s.normErr)
	}
	if s.normalized.DomainExact != want {
		return fmt.Errorf("domain_exact = %q, want %q", s.normalized.DomainExact, want)
	}
	return nil
}

func (s *suite) theLabelIs(want string) error {
	if s.normalized.Label != want {
		return fmt.Errorf("label = %q, want %q", s.normalized.Label, want)
	}
	return nil
}

func (s *suite) theTldIs(want string) error {
	if s.normalized.TLD != want {
		return fmt.Errorf("tld = %q, want %q", s.normalized.TLD, want)
	}
	return nil
}

func (s *suite) theLabelLengthIs(want int) error {
	if s.normalized.Len != want {
		return fmt.Errorf("len = %d, want %d", s.normalized.Len, want)
	}
	return nil
}

func (s *suite) theLabelHasNoHyphen() error {
	if s.normalized.HasHyphen {
		return fmt.Errorf("expected no hyphen")
	}
	return nil
}

func (s *suite) theLabelShouldBeFiltered(label string) error {
	if !domain.ShouldFilter(label) {
		return fmt.Errorf("expected %q to be filtered", label)
	}
	return nil
}

func (s *suite) theLabelShouldNotBeFiltered(label string) error {
	if domain.ShouldFilter(label) {
		return fmt.Errorf("expected %q to survive filtering", label)
	}
	return nil
}

func (s *suite) anIndexContaining(table *godog.Table) error {
	if err := s.ensureIndex(); err != nil {
		return err
	}
	ctx := context.Background()
	for _, row := range table.Rows[1:] {
		domainName := row.Cells[0].Value
		var tokens []string
		if raw := row.Cells[1].Value; raw != "" {
			tokens = strings.Split(raw, ",")
		}
		n, err := domain.Normalize(domainName)
		if err != nil {
			return err
		}
		n.Tokens = tokens
		if err := s.index.AddDocument(ctx, n.ToDocument()); err != nil {
			return err
		}
	}
	return s.index.Commit(ctx)
}

func (s *suite) iSearchForWithLimit(q string, limit int) error {
	if err := s.ensureIndex(); err != nil {
		return err
	}
	s.searchResp, s.searchErr = s.searchSvc.Search(context.Background(), domain.SearchQuery{Q: q, Limit: limit})
	return nil
}

func (s *suite) theResultsInOrderAre(table *godog.Table) error {
	if s.searchErr != nil {
		return fmt.Errorf("search failed: %w", s.searchErr)
	}
	want := make([]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		want = append(want, row.Cells[0].Value)
	}
	if len(s.searchResp.Results) != len(want) {
		return fmt.Errorf("got %d results, want %d", len(s.searchResp.Results), len(want))
	}
	for i, r := range s.searchResp.Results {
		if r.DomainExact != want[i] {
			return fmt.Errorf("result[%d] = %q, want %q", i, r.DomainExact, want[i])
		}
	}
	return nil
}

func (s *suite) theTotalCandidateCountIs(want int) error {
	if s.searchResp.TotalCandidates != want {
		return fmt.Errorf("total_candidates = %d, want %d", s.searchResp.TotalCandidates, want)
	}
	return nil
}

func (s *suite) theSearchIsRejectedAsABadRequest() error {
	if s.searchErr == nil {
		return fmt.Errorf("expected search to fail")
	}
	if domain.ErrorKind(s.searchErr) != domain.KindBadRequest {
		return fmt.Errorf("got kind %v, want KindBadRequest", domain.ErrorKind(s.searchErr))
	}
	return nil
}

func (s *suite) iSubmitABulkSearchWithSubQueries(n int) error {
	if err := s.ensureIndex(); err != nil {
		return err
	}
	queries := make([]domain.BulkSubQuery, n)
	for i := range queries {
		queries[i] = domain.BulkSubQuery{Q: "example"}
	}
	_, s.bulkErr = s.searchSvc.Bulk(context.Background(), domain.DefaultSearchLimit, queries)
	return nil
}

func (s *suite) theBulkSearchIsRejectedAsABadRequest() error {
	if s.bulkErr == nil {
		return fmt.Errorf("expected bulk search to fail")
	}
	if domain.ErrorKind(s.bulkErr) != domain.KindBadRequest {
		return fmt.Errorf("got kind %v, want KindBadRequest", domain.ErrorKind(s.bulkErr))
	}
	return nil
}

func (s *suite) iApplyADailyDeltaRemovingAndAdding(removed, added string) error {
	if err := s.ensureIndex(); err != nil {
		return err
	}
	ctx := context.Background()
	ingestSvc := services.NewIngestService(services.IngestServiceConfig{
		Index: s.index, Segmenter: identitySegmenter{}, Lock: locallock.New(),
	})

	removalsPath := filepath.Join(s.tmpDir, "removals.txt")
	additionsPath := filepath.Join(s.tmpDir, "additions.txt")
	if err := os.WriteFile(removalsPath, []byte(removed+"\n"), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(additionsPath, []byte(added+"\n"), 0o644); err != nil {
		return err
	}

	_, err := ingestSvc.DailyDelta(ctx, driving.DailyDeltaOptions{
		AdditionsPath: additionsPath,
		RemovalsPath:  removalsPath,
	})
	return err
}

func (s *suite) theIndexContainsExactlyOneDocumentFor(domainName string) error {
	doc, err := s.index.GetExact(context.Background(), domainName)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("expected %q to be present", domainName)
	}
	count, err := s.index.Count(context.Background())
	if err != nil {
		return err
	}
	if count != 1 {
		return fmt.Errorf("document count = %d, want 1", count)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	s := &suite{}

	ctx.Before(func(gCtx context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "domainforge-bdd-*")
		if err != nil {
			return gCtx, err
		}
		s.tmpDir = dir
		return gCtx, nil
	})
	ctx.After(func(gCtx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if s.index != nil {
			_ = s.index.Close()
			s.index = nil
		}
		_ = os.RemoveAll(s.tmpDir)
		return gCtx, err
	})

	ctx.Step(`^I normalize "([^"]*)"$`, s.iNormalize)
	ctx.Step(`^the exact form is "([^"]*)"$`, s.theExactFormIs)
	ctx.Step(`^the label is "([^"]*)"$`, s.theLabelIs)
	ctx.Step(`^the tld is "([^"]*)"$`, s.theTldIs)
	ctx.Step(`^the label length is (\d+)$`, s.theLabelLengthIs)
	ctx.Step(`^the label has no hyphen$`, s.theLabelHasNoHyphen)
	ctx.Step(`^the label "([^"]*)" should be filtered$`, s.theLabelShouldBeFiltered)
	ctx.Step(`^the label "([^"]*)" should not be filtered$`, s.theLabelShouldNotBeFiltered)

	ctx.Step(`^an index containing:$`, s.anIndexContaining)
	ctx.Step(`^I search for "([^"]*)" with limit (\d+)$`, s.iSearchForWithLimit)
	ctx.Step(`^the results in order are:$`, s.theResultsInOrderAre)
	ctx.Step(`^the total candidate count is (\d+)$`, s.theTotalCandidateCountIs)
	ctx.Step(`^the search is rejected as a bad request$`, s.theSearchIsRejectedAsABadRequest)

	ctx.Step(`^I submit a bulk search with (\d+) sub-queries$`, s.iSubmitABulkSearchWithSubQueries)
	ctx.Step(`^the bulk search is rejected as a bad request$`, s.theBulkSearchIsRejectedAsABadRequest)

	ctx.Step(`^I apply a daily delta removing "([^"]*)" and adding "([^"]*)"$`, s.iApplyADailyDeltaRemovingAndAdding)
	ctx.Step(`^the index contains exactly one document for "([^"]*)"$`, s.theIndexContainsExactlyOneDocumentFor)
}

func TestFeatures(t *testing.T) {
	suiteOpts := godog.TestSuite{
		Name:                "domain_search",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format: "pretty",
			Paths:  []string{"../../features"},
		},
	}
	if code := suiteOpts.Run(); code != 0 {
		t.Fatalf("godog suite failed with exit code %d", code)
	}
}
