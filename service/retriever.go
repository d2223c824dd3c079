package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/types"
)

// RetrievalResult is the merged, ranked output of a dual knowledge base
// retrieval, plus per-source counts for observability.
type RetrievalResult struct {
	Results   []types.SearchResult
	NumCommon int
	NumTenant int
	// Degraded names the sources that failed while the other succeeded.
	Degraded []string
}

// Retriever fans a query out to the common knowledge base and, when a tenant
// is given, the tenant's knowledge base, then merges and ranks the results.
type Retriever struct {
	kb         *KnowledgeBaseService
	logger     *zap.Logger
	commonTopK int
	tenantTopK int
	minScore   float32
	maxResults int
}

func NewRetriever(kb *KnowledgeBaseService, logger *zap.Logger, commonTopK, tenantTopK, maxResults int, minScore float32) *Retriever {
	return &Retriever{
		kb:         kb,
		logger:     logger,
		commonTopK: commonTopK,
		tenantTopK: tenantTopK,
		minScore:   minScore,
		maxResults: maxResults,
	}
}

// Retrieve runs both searches concurrently; neither depends on the other.
// When one source fails and the other succeeds the result degrades to the
// surviving source instead of failing the request; only a total failure is
// returned as an error.
func (r *Retriever) Retrieve(ctx context.Context, query, tenantID string, intent types.Intent) (*RetrievalResult, error) {
	var category *types.Category
	if c, ok := intent.CategoryLabel(); ok {
		category = &c
	}
	// An unknown intent widens the common search to every category rather
	// than narrowing it to none.

	var (
		wg                   sync.WaitGroup
		common, tenant       []types.SearchResult
		commonErr, tenantErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		common, commonErr = r.kb.SearchCommon(ctx, query, category, r.commonTopK, r.minScore)
	}()
	if tenantID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tenant, tenantErr = r.kb.SearchTenant(ctx, tenantID, query, r.tenantTopK, r.minScore)
		}()
	}
	wg.Wait()

	result := &RetrievalResult{}
	switch {
	case commonErr != nil && tenantID == "":
		return nil, commonErr
	case commonErr != nil && tenantErr != nil:
		// Both sides failed; nothing to degrade to.
		return nil, commonErr
	case commonErr != nil:
		r.logger.Warn("common KB retrieval failed, serving tenant-only results",
			zap.Error(commonErr))
		result.Degraded = append(result.Degraded, "common_kb")
	case tenantErr != nil:
		r.logger.Warn("tenant KB retrieval failed, serving common-only results",
			zap.String("tenant_id", tenantID), zap.Error(tenantErr))
		result.Degraded = append(result.Degraded, "tenant_kb")
	}

	result.NumCommon = len(common)
	result.NumTenant = len(tenant)
	result.Results = r.merge(common, tenant)
	return result, nil
}

// merge concatenates both lists and re-sorts by descending score. On equal
// scores tenant results rank above common ones; remaining ties keep their
// retrieval order. The combined cap drops the lowest-ranked common results
// first and never drops a tenant result.
func (r *Retriever) merge(common, tenant []types.SearchResult) []types.SearchResult {
	merged := make([]types.SearchResult, 0, len(common)+len(tenant))
	merged = append(merged, common...)
	merged = append(merged, tenant...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Source == types.KBTypeTenant && merged[j].Source == types.KBTypeCommon
	})

	if r.maxResults <= 0 || len(merged) <= r.maxResults {
		return merged
	}
	for idx := len(merged) - 1; idx >= 0 && len(merged) > r.maxResults; idx-- {
		if merged[idx].Source == types.KBTypeCommon {
			merged = append(merged[:idx], merged[idx+1:]...)
		}
	}
	return merged
}
