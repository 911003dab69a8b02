package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidDomain indicates a raw domain string failed normalization
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrBadRequest indicates a malformed query (empty q, bulk size over cap, ...)
	ErrBadRequest = errors.New("bad request")

	// ErrIo indicates a file or network read/write failure
	ErrIo = errors.New("io error")

	// ErrSegmenter indicates the external word-segmentation service failed
	ErrSegmenter = errors.New("segmenter error")

	// ErrIndex indicates the index engine failed during query, write, or commit
	ErrIndex = errors.New("index error")

	// ErrCache indicates a fault from the result cache adapter
	ErrCache = errors.New("cache error")

	// ErrConfig indicates a missing or malformed required environment variable
	ErrConfig = errors.New("config error")
)

// Kind classifies a CodedError for HTTP status mapping and ingest error policy.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidDomain
	KindBadRequest
	KindIo
	KindSegmenter
	KindIndex
	KindCache
	KindConfig
)

// CodedError pairs a Kind with an underlying cause, the way callers that
// need to branch on error category (the HTTP layer, the ingest pipeline's
// counters) do without string-matching messages.
type CodedError struct {
	Kind Kind
	Err  error
}

func (e *CodedError) Error() string {
	if e.Err == nil {
		return "domainforge: " + kindSentinel(e.Kind).Error()
	}
	return e.Err.Error()
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind. If err is nil the kind's sentinel
// is used as the wrapped cause.
func NewError(kind Kind, err error) *CodedError {
	if err == nil {
		err = kindSentinel(kind)
	}
	return &CodedError{Kind: kind, Err: err}
}

func kindSentinel(k Kind) error {
	switch k {
	case KindInvalidDomain:
		return ErrInvalidDomain
	case KindBadRequest:
		return ErrBadRequest
	case KindIo:
		return ErrIo
	case KindSegmenter:
		return ErrSegmenter
	case KindIndex:
		return ErrIndex
	case KindCache:
		return ErrCache
	case KindConfig:
		return ErrConfig
	default:
		return ErrNotFound
	}
}

// ErrorKind extracts the Kind from err, if it (or something it wraps) is a
// *CodedError. Returns KindUnknown otherwise.
func ErrorKind(err error) Kind {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Kind
	}
	return KindUnknown
}
