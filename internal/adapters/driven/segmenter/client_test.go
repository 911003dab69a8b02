package segmenter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "pass", pass)

		var req bulkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := bulkResponse{}
		for _, label := range req.Labels {
			resp.Results = append(resp.Results, segmentResult{
				Label:        label,
				Segmentation: []string{label + "-tok"},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestSegmentBatchSingleChunk(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Username: "user", Password: "pass"}, nil)
	results, err := c.SegmentBatch(t.Context(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Label)
	assert.Equal(t, []string{"alpha-tok"}, results[0].Tokens)
	assert.Equal(t, "beta", results[1].Label)
}

func TestSegmentBatchMultipleWaves(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Username: "user", Password: "pass", MaxBatchSize: 2, ParallelRequests: 2}, nil)

	labels := []string{"a", "b", "c", "d", "e"}
	results, err := c.SegmentBatch(t.Context(), labels)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, label := range labels {
		assert.Equal(t, label, results[i].Label)
	}
}

func TestSegmentBatchEmpty(t *testing.T) {
	c := New(Config{BaseURL: "http://unused"}, nil)
	results, err := c.SegmentBatch(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSegmentBatchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Username: "u", Password: "p"}, nil)
	_, err := c.SegmentBatch(t.Context(), []string{"x"})
	require.Error(t, err)
}
