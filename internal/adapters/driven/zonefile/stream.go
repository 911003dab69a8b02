// Package zonefile implements the zone-stream/batcher (spec §4.4) and the
// ZIP/HTTP downloader (spec §6), grounded on original_source's
// zonefile-client crate.
package zonefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/domainforge/domainforge-core/internal/core/domain"
)

const (
	readBufferSize = 1 << 20 // 1 MiB
	maxLineLen     = 253
)

// valid reports whether a trimmed line should be yielded: non-empty, not
// a '#' comment, contains a dot, and at most 253 bytes.
func valid(line string) bool {
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	if !strings.ContainsRune(line, '.') {
		return false
	}
	if len(line) > maxLineLen {
		return false
	}
	return true
}

// Stream is a lazy, finite, non-restartable sequence of raw domain
// strings read from path with a 1 MiB buffer.
type Stream struct {
	file    *os.File
	scanner *bufio.Scanner
	err     error
}

// OpenStream opens path for streaming. Callers must call Close.
func OpenStream(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.NewError(domain.KindIo, fmt.Errorf("open %s: %w", path, err))
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, readBufferSize), readBufferSize)
	return &Stream{file: f, scanner: scanner}, nil
}

// Next advances the stream, returning the next valid domain line, or
// ok=false at EOF or on error (check Err for the latter).
func (s *Stream) Next() (line string, ok bool) {
	for s.scanner.Scan() {
		candidate := strings.TrimSpace(s.scanner.Text())
		if valid(candidate) {
			return candidate, true
		}
	}
	if err := s.scanner.Err(); err != nil {
		s.err = domain.NewError(domain.KindIo, fmt.Errorf("read: %w", err))
	}
	return "", false
}

// Err returns any read error encountered during iteration.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying file handle.
func (s *Stream) Close() error {
	return s.file.Close()
}

// Batch wraps a Stream, yielding non-empty slices of up to n strings,
// with a short final slice for the tail.
type Batch struct {
	stream *Stream
	size   int
}

// NewBatch wraps stream to yield batches of at most size items.
func NewBatch(stream *Stream, size int) *Batch {
	return &Batch{stream: stream, size: size}
}

// Next returns the next batch, or ok=false when the stream is exhausted.
// Errors from the underlying stream surface via Err after a false return.
func (b *Batch) Next() (items []string, ok bool) {
	items = make([]string, 0, b.size)
	for len(items) < b.size {
		line, more := b.stream.Next()
		if !more {
			break
		}
		items = append(items, line)
	}
	if len(items) == 0 {
		return nil, false
	}
	return items, true
}

// Err returns any error from the underlying stream.
func (b *Batch) Err() error {
	return b.stream.Err()
}

// Count streams path once applying the same validity checks as Stream
// and returns the total acceptable line count. Used for progress
// estimation only, never for correctness.
func Count(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.NewError(domain.KindIo, fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, readBufferSize), readBufferSize)

	var count int64
	for scanner.Scan() {
		if valid(strings.TrimSpace(scanner.Text())) {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		if err == io.EOF {
			return count, nil
		}
		return count, domain.NewError(domain.KindIo, fmt.Errorf("read: %w", err))
	}
	return count, nil
}
