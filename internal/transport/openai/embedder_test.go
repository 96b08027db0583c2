package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/metrics"
)

// embedRequest is the subset of the embeddings request body the tests inspect.
type embedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
	User       string   `json:"user"`
}

// newProvider serves /embeddings, answering each text with a vector derived
// from its position and charging one token per word. reorder reverses the
// data array to check that results are sorted by index.
func newProvider(t *testing.T, reorder bool, got *embedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s, want /embeddings", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-aetherfy" {
			t.Errorf("Authorization = %q", auth)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got != nil {
			*got = req
		}

		resp := openai.EmbeddingResponse{Object: "list", Model: openai.EmbeddingModel(req.Model)}
		for i, text := range req.Input {
			resp.Data = append(resp.Data, openai.Embedding{
				Object:    "embedding",
				Embedding: []float32{float32(i), float32(len(text))},
				Index:     i,
			})
			resp.Usage.PromptTokens += len(strings.Fields(text))
		}
		resp.Usage.TotalTokens = resp.Usage.PromptTokens
		if reorder {
			for i, j := 0, len(resp.Data)-1; i < j; i, j = i+1, j-1 {
				resp.Data[i], resp.Data[j] = resp.Data[j], resp.Data[i]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestEmbedder(url string, set *metrics.EmbeddingSet) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "sk-aetherfy",
		BaseURL:    url,
		Model:      "text-embedding-3-small",
		Dimensions: 2,
		User:       "tenant-7",
		Provider:   "openai",
		Metrics:    set,
	})
}

func TestEmbedder_Embed(t *testing.T) {
	var req embedRequest
	srv := newProvider(t, false, &req)
	defer srv.Close()

	res, err := newTestEmbedder(srv.URL, nil).Embed(context.Background(), "query: hybrid search ranking")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(req.Input) != 1 || req.Input[0] != "query: hybrid search ranking" {
		t.Errorf("input = %q", req.Input)
	}
	if req.Model != "text-embedding-3-small" || req.Dimensions != 2 || req.User != "tenant-7" {
		t.Errorf("request = %+v, want configured model, dimensions and user", req)
	}
	if len(res.Embedding) != 2 || res.Embedding[1] != float32(len("query: hybrid search ranking")) {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if res.PromptTokens != 4 || res.TotalTokens != 4 {
		t.Errorf("tokens = %d/%d, want 4/4", res.PromptTokens, res.TotalTokens)
	}
}

func TestEmbedder_BatchEmbedKeepsInputOrder(t *testing.T) {
	srv := newProvider(t, true, nil)
	defer srv.Close()

	passages := []string{"passage: regional replicas", "passage: global write path", "passage: cache hit ratio"}
	res, err := newTestEmbedder(srv.URL, nil).BatchEmbed(context.Background(), passages)
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}

	if len(res.Embeddings) != len(passages) {
		t.Fatalf("got %d embeddings, want %d", len(res.Embeddings), len(passages))
	}
	for i, vec := range res.Embeddings {
		if vec[0] != float32(i) || vec[1] != float32(len(passages[i])) {
			t.Errorf("embeddings[%d] = %v, want vector for %q", i, vec, passages[i])
		}
	}
	if res.TotalTokens != 11 {
		t.Errorf("TotalTokens = %d, want 11", res.TotalTokens)
	}
}

func TestEmbedder_BatchEmbedNoTexts(t *testing.T) {
	emb := newTestEmbedder("http://127.0.0.1:0", nil)

	res, err := emb.BatchEmbed(context.Background(), []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil || res.TotalTokens != 0 {
		t.Errorf("result = %+v, want zero value", res)
	}
}

func TestEmbedder_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		contains string
	}{
		{
			name:     "openai error envelope",
			status:   http.StatusTooManyRequests,
			body:     map[string]any{"error": map[string]any{"message": "quota for tenant-7 exhausted", "type": "insufficient_quota"}},
			contains: "quota for tenant-7 exhausted",
		},
		{
			name:     "detail field",
			status:   http.StatusUnprocessableEntity,
			body:     map[string]any{"detail": "input exceeds 8191 tokens"},
			contains: "input exceeds 8191 tokens",
		},
		{
			name:     "empty data",
			status:   http.StatusOK,
			body:     openai.EmbeddingResponse{Object: "list", Model: "text-embedding-3-small"},
			contains: "empty embedding response",
		},
		{
			name:   "short batch",
			status: http.StatusOK,
			body: openai.EmbeddingResponse{Object: "list", Data: []openai.Embedding{
				{Object: "embedding", Embedding: []float32{0.5, 0.5}, Index: 0},
			}},
			contains: "1 vectors for 2 texts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			_, err := newTestEmbedder(srv.URL, nil).BatchEmbed(context.Background(),
				[]string{"passage: eu-west", "passage: ap-south"})
			if !errors.Is(err, domain.ErrEmbedding) {
				t.Fatalf("expected ErrEmbedding, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to mention %q", err, tt.contains)
			}
		})
	}
}

func TestEmbedder_CancelledContext(t *testing.T) {
	srv := newProvider(t, false, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEmbedder(srv.URL, nil).Embed(ctx, "query: anything")
	if !errors.Is(err, domain.ErrEmbedding) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrEmbedding wrapping context.Canceled, got %v", err)
	}
}

func TestEmbedder_RecordsMetrics(t *testing.T) {
	srv := newProvider(t, false, nil)
	defer srv.Close()

	set, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	emb := newTestEmbedder(srv.URL, set.EmbeddingMetrics())

	if _, err := emb.BatchEmbed(context.Background(), []string{"passage: one two", "passage: three"}); err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	if _, err := newTestEmbedder(failing.URL, set.EmbeddingMetrics()).Embed(context.Background(), "query: x"); err == nil {
		t.Fatal("expected error from 502 provider")
	}

	const model = "text-embedding-3-small"
	if got := testutil.ToFloat64(set.Embedding.Requests.WithLabelValues("openai", model, "success")); got != 1 {
		t.Errorf("success requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(set.Embedding.Tokens.WithLabelValues("openai", model, "total")); got != 5 {
		t.Errorf("total tokens = %v, want 5", got)
	}
	if got := testutil.ToFloat64(set.Embedding.Errors.WithLabelValues("openai", model, "api_error")); got != 1 {
		t.Errorf("api errors = %v, want 1", got)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	known := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/text-embedding-3-small" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if !known {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "model text-embedding-3-small not found"}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "text-embedding-3-small", "object": "model", "owned_by": "openai"})
	}))
	defer srv.Close()

	emb := newTestEmbedder(srv.URL, nil)
	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Fatalf("healthy provider: %v", err)
	}

	known = false
	err := emb.HealthCheck(context.Background())
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want provider message", err)
	}
}
