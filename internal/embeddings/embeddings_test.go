package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vecs [][]float32
	err  error
}

func (s stubEmbedder) Embed(context.Context, []string) ([][]float32, error) { return s.vecs, s.err }
func (s stubEmbedder) Dimensions() int                                      { return 2 }
func (s stubEmbedder) Name() string                                         { return "stub" }

func TestNewSelectsProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New("openai", "")
	assert.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "k")
	e, err := New("openai", "")
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", e.Name())
	assert.Equal(t, 1536, e.Dimensions())

	t.Setenv("OLLAMA_HOST", "")
	e, err = New("ollama", "")
	require.NoError(t, err)
	assert.Equal(t, "ollama/nomic-embed-text", e.Name())
	assert.Equal(t, DefaultOllamaDimensions, e.Dimensions())

	_, err = New("google", "x")
	assert.Error(t, err)
}

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","model":"text-embedding-3-large","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}]}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("k")
	cfg.BaseURL = srv.URL
	e := newOpenAIEmbedder(cfg, ModelTextEmbedding3Large)

	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, 3072, e.Dimensions())
}

func TestOllamaEmbedderBatches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req ollamaEmbedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		_, _ = io.WriteString(w, `{"embeddings":[[1,0],[0,1]]}`)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 2, srv.URL+"/")
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 1, calls)

	vecs, err = e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestOllamaEmbedderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder("missing", 2, srv.URL).Embed(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "404")
}

func TestToChromemFunc(t *testing.T) {
	fn := ToChromemFunc(stubEmbedder{vecs: [][]float32{{0.6, 0.8}}})
	v, err := fn(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, v)

	_, err = ToChromemFunc(stubEmbedder{})(context.Background(), "x")
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = ToChromemFunc(stubEmbedder{err: boom})(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
