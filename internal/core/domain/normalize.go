package domain

import (
	"strings"

	"golang.org/x/net/idna"
)

// NormalizedDomain is the canonical form of a raw domain string, produced
// by Normalize and consumed by the document schema translator.
type NormalizedDomain struct {
	// DomainExact is the ASCII-only fully-qualified form: lowercased,
	// IDNA-to-ASCII applied, trailing dot removed.
	DomainExact string
	// Label is the leftmost portion before the rightmost dot. Not the
	// registrable label under public-suffix rules; see design notes.
	Label string
	// TLD is the portion after the rightmost dot.
	TLD string
	// Len is len(Label), bounded to 63 bytes.
	Len int
	// HasHyphen is true iff Label contains '-'.
	HasHyphen bool
	// Tokens holds segmenter output; empty until populated during ingest.
	Tokens []string
}

const maxLabelLen = 63

var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
)

// Normalize converts a raw domain string into a NormalizedDomain, or
// returns a *CodedError with Kind == KindInvalidDomain.
//
// Trims whitespace, strips one trailing dot, lowercases ASCII, applies
// IDNA-to-ASCII (falling back to the lowercased form on failure), splits
// once on the rightmost dot, and validates the resulting label.
func Normalize(raw string) (NormalizedDomain, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimSuffix(trimmed, ".")
	lower := strings.ToLower(trimmed)

	ascii, err := idnaProfile.ToASCII(lower)
	if err != nil {
		ascii = lower
	}

	dot := strings.LastIndexByte(ascii, '.')
	if dot < 0 {
		return NormalizedDomain{}, NewError(KindInvalidDomain, nil)
	}

	label := ascii[:dot]
	tld := ascii[dot+1:]

	if label == "" {
		return NormalizedDomain{}, NewError(KindInvalidDomain, nil)
	}
	if len(label) > maxLabelLen {
		return NormalizedDomain{}, NewError(KindInvalidDomain, nil)
	}

	return NormalizedDomain{
		DomainExact: ascii,
		Label:       label,
		TLD:         tld,
		Len:         len(label),
		HasHyphen:   strings.ContainsRune(label, '-'),
		Tokens:      nil,
	}, nil
}
