package domain

import "strings"

// Document is the schema-level representation of a NormalizedDomain as
// stored by the index engine. Document identity is DomainExact;
// uniqueness is enforced by the ingest pipeline's delete-by-term-then-add
// protocol, not by a surrogate ID.
type Document struct {
	DomainExact string   `json:"domain_exact"`
	Tokens      []string `json:"tokens"`
	Label       string   `json:"label"`
	TLD         string   `json:"tld"`
	Len         int      `json:"len"`
	HasHyphen   bool     `json:"has_hyphen"`
}

// ToDocument translates a normalized, (optionally) segmented record into
// the document the index engine stores.
func (n NormalizedDomain) ToDocument() Document {
	return Document{
		DomainExact: n.DomainExact,
		Tokens:      n.Tokens,
		Label:       n.Label,
		TLD:         n.TLD,
		Len:         n.Len,
		HasHyphen:   n.HasHyphen,
	}
}

// DomainResult is the flattened, client-facing shape of a Document plus
// ranking signals, returned by exact lookup, search, and bulk search.
type DomainResult struct {
	DomainExact string  `json:"domain_exact"`
	Label       string  `json:"label"`
	TLD         string  `json:"tld"`
	Len         int     `json:"len"`
	HasHyphen   bool    `json:"has_hyphen"`
	MatchCount  int     `json:"match_count"`
	Score       float64 `json:"score"`
}

// NewDomainResult reconstructs a DomainResult from stored-field values
// returned by the index engine, recomputing TLD as the substring of
// domainExact after the last dot rather than trusting a stored facet
// (see design notes on the unused facet field).
func NewDomainResult(domainExact, label string, length int, hasHyphen bool) DomainResult {
	tld := domainExact
	if dot := strings.LastIndexByte(domainExact, '.'); dot >= 0 {
		tld = domainExact[dot+1:]
	}
	return DomainResult{
		DomainExact: domainExact,
		Label:       label,
		TLD:         tld,
		Len:         length,
		HasHyphen:   hasHyphen,
	}
}
