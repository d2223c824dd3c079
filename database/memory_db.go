package database

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process VectorStore with an exact cosine scan. It
// backs local development and tests, and is the reference implementation of
// the contract's ordering and tie-break rules.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	vectorSize int
	points     map[string]Point
	order      []string // insertion order, for stable equal-score results
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, name string, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil
	}
	s.collections[name] = &memoryCollection{
		vectorSize: vectorSize,
		points:     make(map[string]Point),
	}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		col = &memoryCollection{points: make(map[string]Point)}
		s.collections[collection] = col
	}
	for _, p := range points {
		if _, exists := col.points[p.ID]; !exists {
			col.order = append(col.order, p.ID)
		}
		col.points[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, collection string, vector []float32, topK int, minScore float32) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	hits := make([]Hit, 0, len(col.points))
	for _, id := range col.order {
		p := col.points[id]
		score := cosineSimilarity(vector, p.Vector)
		if score < minScore {
			continue
		}
		hits = append(hits, Hit{ID: p.ID, Score: score, Entry: p.Entry})
	}
	// Descending by score; the stable sort keeps insertion order on ties.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *MemoryStore) Get(_ context.Context, collection string, id string) (*Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	p, ok := col.points[id]
	if !ok {
		return nil, nil
	}
	return &Hit{ID: p.ID, Entry: p.Entry}, nil
}

func (s *MemoryStore) DeletePoint(_ context.Context, collection string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, ok := col.points[id]; !ok {
		return nil
	}
	delete(col.points, id)
	for i, existing := range col.order {
		if existing == id {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *MemoryStore) ListCollections(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []string
	for name := range s.collections {
		if strings.HasPrefix(name, prefix) {
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)
	return matched, nil
}

func (s *MemoryStore) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	return len(col.points), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
