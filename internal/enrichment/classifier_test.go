package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLabelMaps(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "label_maps.json")
	content := `{
		"fake_news_detection": {"0": "fake", "1": "real"},
		"sentiment_analysis": {"0": "negative", "1": "positive"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClassifierDegradesWhenInitFails(t *testing.T) {
	c := NewClassifier("http://localhost:0", "/nonexistent/label_maps.json")

	assert.False(t, c.IsReady())

	preds := c.PredictBatch(context.Background(), []string{"any text at all, long enough to pass the gate"})
	require.Len(t, preds, 1)
	assert.Nil(t, preds[0].IsFake)
	assert.Nil(t, preds[0].Sentiment)
}

func TestClassifierLanguageGateShortCircuits(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewClassifier(server.URL, writeLabelMaps(t))
	require.True(t, c.IsReady())

	preds := c.PredictBatch(context.Background(), []string{"a b c d e f g h i j"})

	require.Len(t, preds, 1)
	assert.Nil(t, preds[0].IsFake)
	assert.Nil(t, preds[0].Sentiment)
	assert.False(t, called, "model must not be invoked for gated-out text")
}

func TestClassifierPredictBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions": [
			{"fake_news_detection": 0, "sentiment_analysis": 1},
			{"fake_news_detection": 1, "sentiment_analysis": 0}
		]}`))
	}))
	defer server.Close()

	c := NewClassifier(server.URL, writeLabelMaps(t))

	preds := c.PredictBatch(context.Background(), []string{
		"This breaking story turned out to be entirely fabricated by the outlet.",
		"Scientists report steady progress on the new vaccine rollout this year.",
	})

	require.Len(t, preds, 2)
	require.NotNil(t, preds[0].IsFake)
	assert.True(t, *preds[0].IsFake)
	require.NotNil(t, preds[0].Sentiment)
	assert.Equal(t, "positive", *preds[0].Sentiment)
	require.NotNil(t, preds[1].IsFake)
	assert.False(t, *preds[1].IsFake)
	assert.Equal(t, "negative", *preds[1].Sentiment)
}

func TestClassifierInferenceErrorDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClassifier(server.URL, writeLabelMaps(t))

	preds := c.PredictBatch(context.Background(), []string{"perfectly reasonable english text for the classifier"})

	require.Len(t, preds, 1)
	assert.Nil(t, preds[0].IsFake)
	assert.Nil(t, preds[0].Sentiment)
}

func TestClassifierCapsTextAtRuneBoundary(t *testing.T) {
	var sent classifyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		w.Write([]byte(`{"predictions": [{"fake_news_detection": 1, "sentiment_analysis": 1}]}`))
	}))
	defer server.Close()

	c := NewClassifier(server.URL, writeLabelMaps(t))

	// Multi-byte characters straddling the cap must not be split.
	text := strings.Repeat("a", maxClassifierChars-9) + strings.Repeat("é", 20)
	preds := c.PredictBatch(context.Background(), []string{text})

	require.Len(t, preds, 1)
	require.Len(t, sent.Texts, 1)
	assert.True(t, utf8.ValidString(sent.Texts[0]))
	assert.Equal(t, maxClassifierChars, utf8.RuneCountInString(sent.Texts[0]))
}

func TestLooksClassifiable(t *testing.T) {
	assert.True(t, LooksClassifiable("This is clearly an English sentence about the news."))
	assert.False(t, LooksClassifiable("short"))
	assert.False(t, LooksClassifiable("a b c d e f g h i j"))
	assert.False(t, LooksClassifiable("Это новость на русском языке, не на английском"))
}

func TestHTTPEmbedderAlignsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": [[0.1, 0.2], [0.3, 0.4]]}`))
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL, "all-MiniLM-L6-v2")

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestHTTPEmbedderCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": [[0.1]]}`))
	}))
	defer server.Close()

	embedder := NewHTTPEmbedder(server.URL, "all-MiniLM-L6-v2")

	_, err := embedder.EmbedTexts(context.Background(), []string{"one", "two"})
	assert.Error(t, err)
}
