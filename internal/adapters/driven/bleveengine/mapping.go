package bleveengine

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
)

// tokenAnalyzer splits on Unicode word boundaries (so the tokens field's
// single-space-joined segmenter output splits the same way whitespace
// would) and lowercases, with no stopword removal: tokens are already
// meaningful pre-segmented words, not prose.
const tokenAnalyzer = "domainforge_tokens"

// buildMapping declares the document schema from spec §3: domain_exact
// (keyword, stored), tokens (analyzed, stored, for keyword retrieval),
// label (analyzed, stored, debug/display), len and has_hyphen (numeric,
// stored, for rescoring/partitioning). tld is deliberately not a schema
// field — see design notes on the unused facet field; it is always
// reconstructed from domain_exact at read time.
func buildMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()

	if err := im.AddCustomAnalyzer(tokenAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
		},
	}); err != nil {
		return nil, err
	}

	doc := bleve.NewDocumentMapping()

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = "keyword"
	exact.Store = true
	doc.AddFieldMappingsAt("domain_exact", exact)

	tokens := bleve.NewTextFieldMapping()
	tokens.Analyzer = tokenAnalyzer
	tokens.Store = true
	tokens.IncludeTermVectors = true
	doc.AddFieldMappingsAt("tokens", tokens)

	label := bleve.NewTextFieldMapping()
	label.Analyzer = tokenAnalyzer
	label.Store = true
	doc.AddFieldMappingsAt("label", label)

	length := bleve.NewNumericFieldMapping()
	length.Store = true
	doc.AddFieldMappingsAt("len", length)

	hasHyphen := bleve.NewNumericFieldMapping()
	hasHyphen.Store = true
	doc.AddFieldMappingsAt("has_hyphen", hasHyphen)

	im.DefaultMapping = doc
	im.DefaultAnalyzer = tokenAnalyzer
	im.ScoringModel = "bm25"
	return im, nil
}

// indexable is the bleve document shape. TLD is intentionally absent;
// HasHyphen is stored as 0/1 the way spec §3 describes the field type.
type indexable struct {
	DomainExact string   `json:"domain_exact"`
	Tokens      []string `json:"tokens"`
	Label       string   `json:"label"`
	Len         float64  `json:"len"`
	HasHyphen   float64  `json:"has_hyphen"`
}
