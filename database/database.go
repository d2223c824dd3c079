package database

import (
	"context"
	"strings"

	"github.com/opsmind-ai/kb-gateway/types"
)

// Collection name patterns. Isolation between tenants and between tenants and
// the common knowledge base is structural: each name below is a distinct
// collection in the backend, never a query-time filter.
const (
	CommonCollectionPrefix = "kb_common_"
	TenantCollectionPrefix = "kb_tenant_"
)

// CommonCollectionName returns the collection holding common entries of one
// category.
func CommonCollectionName(category types.Category) string {
	return CommonCollectionPrefix + string(category)
}

// TenantCollectionName returns the collection holding all of a tenant's
// entries.
func TenantCollectionName(tenantID string) string {
	return TenantCollectionPrefix + tenantID
}

// TenantIDFromCollection extracts the tenant id from a tenant collection name.
func TenantIDFromCollection(name string) (string, bool) {
	if !strings.HasPrefix(name, TenantCollectionPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, TenantCollectionPrefix), true
}

// Point is one entry plus its embedding, ready for upsert. The full entry is
// stored as the payload so hits decode without a second lookup.
type Point struct {
	ID     string
	Vector []float32
	Entry  *types.KnowledgeBaseEntry
}

// Hit is a single similarity search result. Score is cosine similarity in
// [-1, 1].
type Hit struct {
	ID    string
	Score float32
	Entry *types.KnowledgeBaseEntry
}

// VectorStore is the contract every vector backend satisfies.
//
// Semantics all implementations share:
//   - EnsureCollection is idempotent and safe under concurrent first access;
//     duplicate-create races converge to one usable collection without a
//     surfaced error.
//   - Upsert overwrites on id collision. Callers inserting more than one
//     point pass them in one call.
//   - Search returns hits ordered by descending score; equal scores keep the
//     backend's input order. A missing or empty collection yields an empty
//     slice and a nil error.
//   - DeleteCollection is idempotent.
//   - Connectivity failures wrap types.ErrStoreUnavailable and are never
//     collapsed into an empty result.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, vectorSize int) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, topK int, minScore float32) ([]Hit, error)
	Get(ctx context.Context, collection string, id string) (*Hit, error)
	DeletePoint(ctx context.Context, collection string, id string) error
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context, prefix string) ([]string, error)
	Count(ctx context.Context, collection string) (int, error)
}
