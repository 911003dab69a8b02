package bleveengine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainforge/domainforge-core/internal/core/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idx.bleve")
	e, err := Open(path, 64<<20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func doc(domainExact, label string, length int, hyphen bool, tokens ...string) domain.Document {
	return domain.Document{DomainExact: domainExact, Label: label, TLD: "com", Len: length, HasHyphen: hyphen, Tokens: tokens}
}

func TestAddCommitGetExact(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.AddDocument(ctx, doc("example.com", "example", 7, false, "example")))
	require.NoError(t, e.Commit(ctx))

	got, err := e.GetExact(ctx, "example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "example.com", got.DomainExact)
	assert.Equal(t, "com", got.TLD)
	assert.Equal(t, 7, got.Len)
}

func TestDeleteByExact(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.AddDocument(ctx, doc("foo.com", "foo", 3, false, "foo")))
	require.NoError(t, e.Commit(ctx))

	require.NoError(t, e.DeleteByExact(ctx, "foo.com"))
	require.NoError(t, e.Commit(ctx))

	got, err := e.GetExact(ctx, "foo.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchTokensReturnsMatches(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.AddDocument(ctx, doc("middleofnight.com", "middleofnight", 13, false, "middle", "of", "night")))
	require.NoError(t, e.AddDocument(ctx, doc("night.com", "night", 5, false, "night")))
	require.NoError(t, e.AddDocument(ctx, doc("middle-night.com", "middle-night", 12, true, "middle", "night")))
	require.NoError(t, e.Commit(ctx))

	docs, scores, err := e.SearchTokens(ctx, []string{"middle", "night"}, 100)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Len(t, scores, 3)
}

func TestCount(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.AddDocument(ctx, doc("a.com", "a", 1, false)))
	require.NoError(t, e.AddDocument(ctx, doc("b.com", "b", 1, false)))
	require.NoError(t, e.Commit(ctx))

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestReplaceSemantics(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.AddDocument(ctx, doc("foo.com", "foo", 3, false, "old")))
	require.NoError(t, e.Commit(ctx))

	require.NoError(t, e.DeleteByExact(ctx, "foo.com"))
	require.NoError(t, e.AddDocument(ctx, doc("foo.com", "foo", 3, false, "new")))
	require.NoError(t, e.Commit(ctx))

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	got, err := e.GetExact(ctx, "foo.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"new"}, got.Tokens)
}
