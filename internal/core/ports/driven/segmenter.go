package driven

import "context"

// LabelTokens pairs an input label with its segmentation result, in the
// order segment_batch received the labels.
type LabelTokens struct {
	Label  string
	Tokens []string
}

// Segmenter wraps the external word-segmentation HTTP service.
type Segmenter interface {
	// SegmentBatch returns labels paired with their segmentation results,
	// in input order. Chunking, wave-bounded parallelism, and positional
	// pairing of a short response are the implementation's concern; a
	// failed chunk surfaces as an error covering the affected labels.
	SegmentBatch(ctx context.Context, labels []string) ([]LabelTokens, error)
}
