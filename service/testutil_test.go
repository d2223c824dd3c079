package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/database"
	"github.com/opsmind-ai/kb-gateway/types"
)

// stubEmbedder returns a registered vector for any text containing one of its
// keys, falling back to a deterministic bag-of-words hash vector. Keys are
// matched in registration order, so entry texts and queries can be steered to
// chosen points in vector space.
type stubEmbedder struct {
	dim  int
	keys []string
	vecs [][]float32
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{dim: 4}
}

func (e *stubEmbedder) add(key string, vec []float32) *stubEmbedder {
	e.keys = append(e.keys, key)
	e.vecs = append(e.vecs, vec)
	return e
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	for i, key := range e.keys {
		if strings.Contains(text, key) {
			return e.vecs[i], nil
		}
	}
	return hashVector(text, e.dim), nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *stubEmbedder) Dimension() int { return e.dim }

func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%dim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// failingEmbedder always fails, for embedding-outage paths.
type failingEmbedder struct{ dim int }

func (e failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("%w: stub outage", types.ErrEmbeddingUnavailable)
}

func (e failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("%w: stub outage", types.ErrEmbeddingUnavailable)
}

func (e failingEmbedder) Dimension() int { return e.dim }

// flakyStore wraps a working store but fails searches against collections
// with a given prefix, to exercise partial-outage degradation.
type flakyStore struct {
	database.VectorStore
	failPrefix string
}

func (s *flakyStore) Search(ctx context.Context, collection string, vector []float32, topK int, minScore float32) ([]database.Hit, error) {
	if strings.HasPrefix(collection, s.failPrefix) {
		return nil, fmt.Errorf("%w: stub outage on %s", types.ErrStoreUnavailable, collection)
	}
	return s.VectorStore.Search(ctx, collection, vector, topK, minScore)
}

// failingStore fails every operation.
type failingStore struct{}

func storeDown() error {
	return fmt.Errorf("%w: stub outage", types.ErrStoreUnavailable)
}

func (failingStore) EnsureCollection(context.Context, string, int) error { return storeDown() }
func (failingStore) Upsert(context.Context, string, []database.Point) error {
	return storeDown()
}
func (failingStore) Search(context.Context, string, []float32, int, float32) ([]database.Hit, error) {
	return nil, storeDown()
}
func (failingStore) Get(context.Context, string, string) (*database.Hit, error) {
	return nil, storeDown()
}
func (failingStore) DeletePoint(context.Context, string, string) error { return storeDown() }
func (failingStore) DeleteCollection(context.Context, string) error    { return storeDown() }
func (failingStore) ListCollections(context.Context, string) ([]string, error) {
	return nil, storeDown()
}
func (failingStore) Count(context.Context, string) (int, error) { return 0, storeDown() }

// stubOCR returns a fixed result or error.
type stubOCR struct {
	result *types.OCRResult
	err    error
}

func (o *stubOCR) ExtractErrorLogs(context.Context, []byte) (*types.OCRResult, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.result, nil
}

func newTestKB(store database.VectorStore, embedder Embedder) *KnowledgeBaseService {
	return NewKnowledgeBaseService(store, embedder, zap.NewNop())
}

func commonEntry(title string, category types.Category, solutions ...string) *types.KnowledgeBaseEntry {
	if len(solutions) == 0 {
		solutions = []string{"Restart the service"}
	}
	return &types.KnowledgeBaseEntry{
		Title:             title,
		Phenomenon:        "Observed failure for " + title,
		RootCauseAnalysis: "Root cause of " + title,
		Solutions:         solutions,
		Category:          category,
	}
}

func tenantEntry(title string, solutions ...string) *types.KnowledgeBaseEntry {
	if len(solutions) == 0 {
		solutions = []string{"Apply the runbook"}
	}
	return &types.KnowledgeBaseEntry{
		Title:      title,
		Phenomenon: "Observed failure for " + title,
		Solutions:  solutions,
	}
}
