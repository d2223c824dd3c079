package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/database"
	"github.com/opsmind-ai/kb-gateway/types"
)

// KnowledgeBaseService is the typed CRUD/search facade over the vector store.
// It enforces the entry schema and the category taxonomy; everything below it
// deals in already-validated entries.
type KnowledgeBaseService struct {
	store    database.VectorStore
	embedder Embedder
	logger   *zap.Logger
}

func NewKnowledgeBaseService(store database.VectorStore, embedder Embedder, logger *zap.Logger) *KnowledgeBaseService {
	return &KnowledgeBaseService{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// AddCommonEntry validates and writes one entry to the common knowledge base
// collection of its category. A caller-supplied id makes the write
// idempotently retryable; otherwise a fresh one is assigned.
func (s *KnowledgeBaseService) AddCommonEntry(ctx context.Context, entry *types.KnowledgeBaseEntry) (string, error) {
	entry.KBType = types.KBTypeCommon
	entry.TenantID = ""
	return s.addEntry(ctx, entry)
}

// AddTenantEntry validates and writes one entry to the tenant's collection.
func (s *KnowledgeBaseService) AddTenantEntry(ctx context.Context, tenantID string, entry *types.KnowledgeBaseEntry) (string, error) {
	entry.KBType = types.KBTypeTenant
	entry.TenantID = tenantID
	return s.addEntry(ctx, entry)
}

func (s *KnowledgeBaseService) addEntry(ctx context.Context, entry *types.KnowledgeBaseEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	vector, err := s.embedder.Embed(ctx, entry.SearchableText())
	if err != nil {
		return "", err
	}

	collection := collectionFor(entry)
	if err := s.store.EnsureCollection(ctx, collection, s.embedder.Dimension()); err != nil {
		return "", err
	}
	if err := s.store.Upsert(ctx, collection, []database.Point{{
		ID:     entry.ID,
		Vector: vector,
		Entry:  entry,
	}}); err != nil {
		return "", err
	}
	s.logger.Info("added knowledge base entry",
		zap.String("id", entry.ID),
		zap.String("collection", collection))
	return entry.ID, nil
}

// AddEntries writes a batch of entries, grouping them by target collection
// and embedding each group in one provider call.
func (s *KnowledgeBaseService) AddEntries(ctx context.Context, entries []*types.KnowledgeBaseEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	byCollection := make(map[string][]*types.KnowledgeBaseEntry)
	var collections []string
	now := time.Now().UTC()
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		collection := collectionFor(entry)
		if _, seen := byCollection[collection]; !seen {
			collections = append(collections, collection)
		}
		byCollection[collection] = append(byCollection[collection], entry)
	}

	ids := make([]string, 0, len(entries))
	for _, collection := range collections {
		group := byCollection[collection]
		texts := make([]string, len(group))
		for i, entry := range group {
			texts[i] = entry.SearchableText()
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if err := s.store.EnsureCollection(ctx, collection, s.embedder.Dimension()); err != nil {
			return nil, err
		}
		points := make([]database.Point, len(group))
		for i, entry := range group {
			points[i] = database.Point{ID: entry.ID, Vector: vectors[i], Entry: entry}
		}
		if err := s.store.Upsert(ctx, collection, points); err != nil {
			return nil, err
		}
		for _, entry := range group {
			ids = append(ids, entry.ID)
		}
		s.logger.Info("added knowledge base entries",
			zap.String("collection", collection),
			zap.Int("count", len(group)))
	}
	return ids, nil
}

// SearchCommon searches the common knowledge base. With a category it
// searches that category's collection only; without one it fans out over all
// known common collections in parallel and merges by descending score.
func (s *KnowledgeBaseService) SearchCommon(ctx context.Context, query string, category *types.Category, topK int, minScore float32) ([]types.SearchResult, error) {
	if err := validateSearchArgs(query, topK, minScore); err != nil {
		return nil, err
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.searchCommonVector(ctx, vector, category, topK, minScore)
}

// SearchTenant searches one tenant's knowledge base. A tenant without a
// collection yet yields an empty result, not an error.
func (s *KnowledgeBaseService) SearchTenant(ctx context.Context, tenantID, query string, topK int, minScore float32) ([]types.SearchResult, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("%w: tenant_id is required", types.ErrInvalidArgument)
	}
	if err := validateSearchArgs(query, topK, minScore); err != nil {
		return nil, err
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.searchTenantVector(ctx, vector, tenantID, topK, minScore)
}

// SearchBoth runs the common and tenant searches and returns the two lists
// untouched; merging and ranking across them is the retriever's job. The
// query is embedded once and shared.
func (s *KnowledgeBaseService) SearchBoth(ctx context.Context, query, tenantID string, category *types.Category, commonTopK, tenantTopK int, minScore float32) (*types.SearchBothResults, error) {
	if err := validateSearchArgs(query, commonTopK, minScore); err != nil {
		return nil, err
	}
	if tenantID != "" && tenantTopK <= 0 {
		return nil, fmt.Errorf("%w: tenant_top_k must be positive", types.ErrInvalidArgument)
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results := &types.SearchBothResults{}
	var wg sync.WaitGroup
	var commonErr, tenantErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		results.Common, commonErr = s.searchCommonVector(ctx, vector, category, commonTopK, minScore)
	}()
	if tenantID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results.Tenant, tenantErr = s.searchTenantVector(ctx, vector, tenantID, tenantTopK, minScore)
		}()
	}
	wg.Wait()

	if commonErr != nil {
		return nil, commonErr
	}
	if tenantErr != nil {
		return nil, tenantErr
	}
	return results, nil
}

func (s *KnowledgeBaseService) searchCommonVector(ctx context.Context, vector []float32, category *types.Category, topK int, minScore float32) ([]types.SearchResult, error) {
	var collections []string
	if category != nil {
		collections = []string{database.CommonCollectionName(*category)}
	} else {
		known, err := s.store.ListCollections(ctx, database.CommonCollectionPrefix)
		if err != nil {
			return nil, err
		}
		collections = known
		if len(collections) == 0 {
			for _, cat := range types.AllCategories() {
				collections = append(collections, database.CommonCollectionName(cat))
			}
		}
	}

	// All category collections live on the same backend, so one failing
	// search fails the common side as a whole.
	perCollection := make([][]types.SearchResult, len(collections))
	errs := make([]error, len(collections))
	var wg sync.WaitGroup
	for i, collection := range collections {
		wg.Add(1)
		go func(i int, collection string) {
			defer wg.Done()
			hits, err := s.store.Search(ctx, collection, vector, topK, minScore)
			if err != nil {
				errs[i] = err
				return
			}
			perCollection[i] = hitsToResults(hits, types.KBTypeCommon)
		}(i, collection)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var merged []types.SearchResult
	for _, results := range perCollection {
		merged = append(merged, results...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	merged = dedupeByID(merged)
	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

func (s *KnowledgeBaseService) searchTenantVector(ctx context.Context, vector []float32, tenantID string, topK int, minScore float32) ([]types.SearchResult, error) {
	hits, err := s.store.Search(ctx, database.TenantCollectionName(tenantID), vector, topK, minScore)
	if err != nil {
		return nil, err
	}
	return hitsToResults(hits, types.KBTypeTenant), nil
}

// GetEntry looks an entry up by id. For common entries without a known
// category every common collection is probed.
func (s *KnowledgeBaseService) GetEntry(ctx context.Context, id string, kbType types.KBType, tenantID string) (*types.KnowledgeBaseEntry, error) {
	collections, err := s.collectionsFor(ctx, kbType, tenantID)
	if err != nil {
		return nil, err
	}
	for _, collection := range collections {
		hit, err := s.store.Get(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		if hit != nil {
			return hit.Entry, nil
		}
	}
	return nil, nil
}

// DeleteEntry removes an entry by id. Deleting an absent entry is a no-op.
func (s *KnowledgeBaseService) DeleteEntry(ctx context.Context, id string, kbType types.KBType, tenantID string) error {
	collections, err := s.collectionsFor(ctx, kbType, tenantID)
	if err != nil {
		return err
	}
	for _, collection := range collections {
		if err := s.store.DeletePoint(ctx, collection, id); err != nil {
			return err
		}
	}
	return nil
}

// ListTenants enumerates tenants that have a knowledge base collection.
func (s *KnowledgeBaseService) ListTenants(ctx context.Context) ([]string, error) {
	collections, err := s.store.ListCollections(ctx, database.TenantCollectionPrefix)
	if err != nil {
		return nil, err
	}
	tenants := make([]string, 0, len(collections))
	for _, collection := range collections {
		if tenantID, ok := database.TenantIDFromCollection(collection); ok {
			tenants = append(tenants, tenantID)
		}
	}
	return tenants, nil
}

// TenantStats reports the entry count of a tenant's knowledge base.
func (s *KnowledgeBaseService) TenantStats(ctx context.Context, tenantID string) (int, error) {
	if strings.TrimSpace(tenantID) == "" {
		return 0, fmt.Errorf("%w: tenant_id is required", types.ErrInvalidArgument)
	}
	return s.store.Count(ctx, database.TenantCollectionName(tenantID))
}

// DeleteTenant destroys the tenant's collection and every entry in it.
// Irreversible; idempotent when the tenant has no collection.
func (s *KnowledgeBaseService) DeleteTenant(ctx context.Context, tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("%w: tenant_id is required", types.ErrInvalidArgument)
	}
	if err := s.store.DeleteCollection(ctx, database.TenantCollectionName(tenantID)); err != nil {
		return err
	}
	s.logger.Info("deleted tenant knowledge base", zap.String("tenant_id", tenantID))
	return nil
}

func (s *KnowledgeBaseService) collectionsFor(ctx context.Context, kbType types.KBType, tenantID string) ([]string, error) {
	if kbType == types.KBTypeTenant {
		if strings.TrimSpace(tenantID) == "" {
			return nil, fmt.Errorf("%w: tenant_id is required", types.ErrInvalidArgument)
		}
		return []string{database.TenantCollectionName(tenantID)}, nil
	}
	collections, err := s.store.ListCollections(ctx, database.CommonCollectionPrefix)
	if err != nil {
		return nil, err
	}
	if len(collections) == 0 {
		for _, cat := range types.AllCategories() {
			collections = append(collections, database.CommonCollectionName(cat))
		}
	}
	return collections, nil
}

func collectionFor(entry *types.KnowledgeBaseEntry) string {
	if entry.KBType == types.KBTypeTenant {
		return database.TenantCollectionName(entry.TenantID)
	}
	return database.CommonCollectionName(entry.Category)
}

func validateSearchArgs(query string, topK int, minScore float32) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is required", types.ErrInvalidArgument)
	}
	if topK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", types.ErrInvalidArgument)
	}
	if minScore < -1 || minScore > 1 {
		return fmt.Errorf("%w: min_score must be in [-1, 1]", types.ErrInvalidArgument)
	}
	return nil
}

func hitsToResults(hits []database.Hit, source types.KBType) []types.SearchResult {
	results := make([]types.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Entry == nil {
			continue
		}
		results = append(results, types.SearchResult{
			Entry:  hit.Entry,
			Score:  hit.Score,
			Source: source,
		})
	}
	return results
}

// dedupeByID keeps the first (highest scored) occurrence of each entry id.
// Input must already be sorted by descending score.
func dedupeByID(results []types.SearchResult) []types.SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		if _, dup := seen[r.Entry.ID]; dup {
			continue
		}
		seen[r.Entry.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
