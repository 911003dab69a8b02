package zonefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestStreamFiltersInvalidLines(t *testing.T) {
	path := writeTempFile(t, "example.com\ntest.net\n\n# comment\ninvalid\n")

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	var domains []string
	for {
		line, ok := s.Next()
		if !ok {
			break
		}
		domains = append(domains, line)
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"example.com", "test.net"}, domains)
}

func TestStreamRejectsOverlongLines(t *testing.T) {
	long := strings.Repeat("a", 254) + ".com"
	path := writeTempFile(t, long+"\nshort.com\n")

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	line, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "short.com", line)

	_, ok = s.Next()
	assert.False(t, ok)
}

func TestBatchStream(t *testing.T) {
	path := writeTempFile(t, "a.com\nb.com\nc.com\nd.com\ne.com\n")

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	b := NewBatch(s, 2)

	var batches [][]string
	for {
		items, ok := b.Next()
		if !ok {
			break
		}
		batches = append(batches, items)
	}
	require.NoError(t, b.Err())

	require.Len(t, batches, 3)
	assert.Equal(t, []string{"a.com", "b.com"}, batches[0])
	assert.Equal(t, []string{"c.com", "d.com"}, batches[1])
	assert.Equal(t, []string{"e.com"}, batches[2])
}

func TestCount(t *testing.T) {
	path := writeTempFile(t, "example.com\ntest.net\n\n# comment\ninvalid\n")
	n, err := Count(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
