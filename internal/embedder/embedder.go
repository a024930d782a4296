// Package embedder provides the Embedder interface C3's Vector Indexer and
// C6's Semantic Searcher embed text through, plus an OpenAI-backed
// implementation and a deterministic implementation for tests.
package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Embedder converts text to embedding vectors. The embedding model is a
// process-wide singleton: construct once and share the instance across
// callers, since inference is thread-safe read-only.
type Embedder interface {
	// EmbedBatch returns one L2-normalized embedding vector per input text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Name returns a model identifier string.
	Name() string
	// Dimension returns the embedding dimensionality.
	Dimension() int
	// Ping checks whether the embedding backend is reachable.
	Ping(ctx context.Context) error
}

// openaiEmbedder wraps the OpenAI embeddings API. EmbedBatch spaces the
// start of successive calls at least minDelay apart; the requests
// themselves are not serialized. NewOpenAI leaves minDelay at zero, so no
// delay is applied.
type openaiEmbedder struct {
	client    openaisdk.Client
	model     string
	dim       int
	mu        sync.Mutex
	lastCall  time.Time
	minDelay  time.Duration
}

// NewOpenAI constructs an Embedder backed by the OpenAI embeddings API (or
// an OpenAI-compatible endpoint via baseURL).
func NewOpenAI(apiKey, baseURL, model string, dim int) Embedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiEmbedder{
		client: openaisdk.NewClient(opts...),
		model:  model,
		dim:    dim,
	}
}

func (e *openaiEmbedder) Name() string   { return e.model }
func (e *openaiEmbedder) Dimension() int { return e.dim }

func (e *openaiEmbedder) Ping(ctx context.Context) error {
	_, err := e.EmbedBatch(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("embedding endpoint reachability check failed: %w", err)
	}
	return nil
}

func (e *openaiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	if !e.lastCall.IsZero() {
		if elapsed := time.Since(e.lastCall); elapsed < e.minDelay {
			time.Sleep(e.minDelay - elapsed)
		}
	}
	e.lastCall = time.Now()
	e.mu.Unlock()

	params := openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = l2Normalize(toFloat32(d.Embedding, e.dim))
	}
	return out, nil
}

func toFloat32(in []float64, dim int) []float32 {
	if dim <= 0 {
		dim = len(in)
	}
	v := make([]float32, dim)
	for i := 0; i < len(in) && i < dim; i++ {
		v[i] = float32(in[i])
	}
	return v
}

func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// deterministicEmbedder hashes byte 3-grams into a fixed-size L2-normalized
// vector. Suitable for tests and local development without a live embedding
// endpoint.
type deterministicEmbedder struct {
	dim  int
	seed uint64
}

// NewDeterministic constructs a seeded, deterministic Embedder for tests.
func NewDeterministic(dim int, seed uint64) Embedder {
	if dim <= 0 {
		dim = 384
	}
	return &deterministicEmbedder{dim: dim, seed: seed}
}

func (d *deterministicEmbedder) Name() string   { return "deterministic" }
func (d *deterministicEmbedder) Dimension() int { return d.dim }
func (d *deterministicEmbedder) Ping(context.Context) error { return nil }

func (d *deterministicEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = l2Normalize(d.embedOne(t))
	}
	return out, nil
}

func (d *deterministicEmbedder) embedOne(s string) []float32 {
	v := make([]float32, d.dim)
	b := []byte(s)
	if len(b) < 3 {
		addGram(d.seed, b, v)
		return v
	}
	for i := 0; i <= len(b)-3; i++ {
		addGram(d.seed, b[i:i+3], v)
	}
	return v
}

func addGram(seed uint64, gram []byte, v []float32) {
	h := fnv.New64a()
	if seed != 0 {
		var tmp [8]byte
		for i := 0; i < 8; i++ {
			tmp[i] = byte(seed >> (8 * i))
		}
		_, _ = h.Write(tmp[:])
	}
	_, _ = h.Write(gram)
	hv := h.Sum64()
	idx := int(hv % uint64(len(v)))
	w := float32(int32(hv>>32)) / float32(1<<31)
	v[idx] += w
}
