package domain

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// recordingEmbedder returns a one-element vector holding the text length
// and charges one token per word.
type recordingEmbedder struct {
	texts  []string
	failOn string
}

func (r *recordingEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	r.texts = append(r.texts, text)
	if r.failOn != "" && strings.Contains(text, r.failOn) {
		return EmbeddingResult{}, fmt.Errorf("provider rejected %q: %w", text, ErrEmbedding)
	}
	words := len(strings.Fields(text))
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, PromptTokens: words, TotalTokens: words}, nil
}

// batchRecorder additionally implements BatchEmbedder.
type batchRecorder struct {
	recordingEmbedder
	batches [][]string
	short   bool
	err     error
}

func (b *batchRecorder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	b.batches = append(b.batches, texts)
	if b.err != nil {
		return BatchEmbeddingResult{}, b.err
	}
	n := len(texts)
	if b.short {
		n--
	}
	out := BatchEmbeddingResult{Embeddings: make([][]float32, n)}
	for i := range n {
		out.Embeddings[i] = []float32{float32(len(texts[i]))}
		out.TotalTokens += len(strings.Fields(texts[i]))
	}
	out.PromptTokens = out.TotalTokens
	return out, nil
}

var articles = []string{
	"vector search basics",
	"payload schemas keep metadata honest",
}

func TestEmbedAll_FallbackSumsTokens(t *testing.T) {
	emb := &recordingEmbedder{}

	res, err := EmbedAll(context.Background(), emb, articles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(emb.texts, articles) {
		t.Errorf("embedded texts = %q, want %q", emb.texts, articles)
	}
	if len(res.Embeddings) != 2 || res.Embeddings[1][0] != float32(len(articles[1])) {
		t.Errorf("embeddings = %v, want one vector per article in order", res.Embeddings)
	}
	if res.TotalTokens != 8 || res.PromptTokens != 8 {
		t.Errorf("tokens = %d/%d, want 8/8", res.PromptTokens, res.TotalTokens)
	}
}

func TestEmbedAll_FallbackReportsFailingIndex(t *testing.T) {
	emb := &recordingEmbedder{failOn: "schemas"}

	_, err := EmbedAll(context.Background(), emb, articles)
	if !errors.Is(err, ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if !strings.Contains(err.Error(), "[1]") {
		t.Errorf("error = %q, want the failing index", err)
	}
}

func TestEmbedAll_EmptyInput(t *testing.T) {
	res, err := EmbedAll(context.Background(), &recordingEmbedder{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 || res.TotalTokens != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestEmbedAll_PrefersBatch(t *testing.T) {
	emb := &batchRecorder{}

	res, err := EmbedAll(context.Background(), emb, articles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb.batches) != 1 || len(emb.texts) != 0 {
		t.Errorf("batches = %d, single calls = %d; want 1 and 0", len(emb.batches), len(emb.texts))
	}
	if res.TotalTokens != 8 {
		t.Errorf("TotalTokens = %d, want 8", res.TotalTokens)
	}
}

func TestEmbedAll_BatchErrors(t *testing.T) {
	quota := fmt.Errorf("daily limit reached: %w", ErrEmbeddingQuotaExceeded)
	tests := []struct {
		name string
		emb  *batchRecorder
		want error
	}{
		{"short batch", &batchRecorder{short: true}, ErrEmbedding},
		{"provider error", &batchRecorder{err: fmt.Errorf("status 500: %w", ErrEmbedding)}, ErrEmbedding},
		{"quota", &batchRecorder{err: quota}, ErrEmbeddingQuotaExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EmbedAll(context.Background(), tt.emb, articles)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInstructionEmbedder_Embed(t *testing.T) {
	tests := []struct {
		instruction string
		want        string
	}{
		{"query: ", "query: nearest months"},
		{"", "nearest months"},
	}
	for _, tt := range tests {
		inner := &recordingEmbedder{}
		res, err := NewInstructionEmbedder(inner, tt.instruction).Embed(context.Background(), "nearest months")
		if err != nil {
			t.Fatalf("instruction %q: unexpected error: %v", tt.instruction, err)
		}
		if len(inner.texts) != 1 || inner.texts[0] != tt.want {
			t.Errorf("instruction %q: embedded %q, want %q", tt.instruction, inner.texts, tt.want)
		}
		if res.Embedding[0] != float32(len(tt.want)) {
			t.Errorf("instruction %q: vector = %v", tt.instruction, res.Embedding)
		}
	}
}

func TestInstructionEmbedder_EmbedWrapsError(t *testing.T) {
	inner := &recordingEmbedder{failOn: "months"}

	_, err := NewInstructionEmbedder(inner, "query: ").Embed(context.Background(), "months")
	if !errors.Is(err, ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "instruction embed") {
		t.Errorf("error = %q, want instruction embed context", err)
	}
}

func TestInstructionEmbedder_BatchEmbed(t *testing.T) {
	want := []string{"passage: vector search basics", "passage: payload schemas keep metadata honest"}

	t.Run("batch inner", func(t *testing.T) {
		inner := &batchRecorder{}
		if _, err := NewInstructionEmbedder(inner, "passage: ").BatchEmbed(context.Background(), articles); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(inner.batches) != 1 || !reflect.DeepEqual(inner.batches[0], want) {
			t.Errorf("batches = %q, want one batch %q", inner.batches, want)
		}
	})

	t.Run("single inner", func(t *testing.T) {
		inner := &recordingEmbedder{}
		res, err := NewInstructionEmbedder(inner, "passage: ").BatchEmbed(context.Background(), articles)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(inner.texts, want) {
			t.Errorf("texts = %q, want %q", inner.texts, want)
		}
		if res.TotalTokens != 10 {
			t.Errorf("TotalTokens = %d, want 10", res.TotalTokens)
		}
	})

	t.Run("error", func(t *testing.T) {
		inner := &batchRecorder{err: fmt.Errorf("status 503: %w", ErrEmbedding)}
		_, err := NewInstructionEmbedder(inner, "passage: ").BatchEmbed(context.Background(), articles)
		if !errors.Is(err, ErrEmbedding) {
			t.Errorf("expected ErrEmbedding, got %v", err)
		}
	})
}
