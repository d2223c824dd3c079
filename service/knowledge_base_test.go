package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmind-ai/kb-gateway/database"
	"github.com/opsmind-ai/kb-gateway/types"
)

func TestAddCommonEntryValidation(t *testing.T) {
	kb := newTestKB(database.NewMemoryStore(), newStubEmbedder())
	ctx := context.Background()

	t.Run("unknown category", func(t *testing.T) {
		entry := commonEntry("Broken thing", "blockchain")
		_, err := kb.AddCommonEntry(ctx, entry)
		assert.True(t, errors.Is(err, types.ErrInvalidCategory))
	})

	t.Run("no solutions", func(t *testing.T) {
		entry := commonEntry("Broken thing", types.CategoryDatabase)
		entry.Solutions = nil
		_, err := kb.AddCommonEntry(ctx, entry)
		assert.True(t, errors.Is(err, types.ErrInvalidEntry))
	})

	t.Run("tenant entry without tenant id", func(t *testing.T) {
		_, err := kb.AddTenantEntry(ctx, "", tenantEntry("Broken thing"))
		assert.True(t, errors.Is(err, types.ErrInvalidEntry))
	})
}

func TestSearchArgValidation(t *testing.T) {
	kb := newTestKB(database.NewMemoryStore(), newStubEmbedder())
	ctx := context.Background()

	_, err := kb.SearchCommon(ctx, "   ", nil, 5, 0.3)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = kb.SearchCommon(ctx, "query", nil, 0, 0.3)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = kb.SearchCommon(ctx, "query", nil, 5, 1.5)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = kb.SearchTenant(ctx, "", "query", 5, 0.3)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestSearchEmptyKnowledgeBase(t *testing.T) {
	kb := newTestKB(database.NewMemoryStore(), newStubEmbedder())
	ctx := context.Background()

	category := types.CategoryDatabase
	results, err := kb.SearchCommon(ctx, "anything at all", &category, 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = kb.SearchTenant(ctx, "never-seen-tenant", "anything at all", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAddAndSearchRoundTrip(t *testing.T) {
	embedder := newStubEmbedder().
		add("PostgreSQL Connection Pool Exhaustion", []float32{1, 0, 0, 0}).
		add("postgres is out of connection slots", []float32{3, 1, 0, 0})
	kb := newTestKB(database.NewMemoryStore(), embedder)
	ctx := context.Background()

	entry := commonEntry("PostgreSQL Connection Pool Exhaustion", types.CategoryDatabase,
		"Increase max_connections", "Use PgBouncer")
	id, err := kb.AddCommonEntry(ctx, entry)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	category := types.CategoryDatabase
	results, err := kb.SearchCommon(ctx, "postgres is out of connection slots", &category, 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].Entry.ID)
	assert.Equal(t, types.KBTypeCommon, results[0].Source)
	assert.Greater(t, results[0].Score, float32(0.3))

	// Without a category the search fans out over all common collections.
	results, err = kb.SearchCommon(ctx, "postgres is out of connection slots", nil, 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].Entry.ID)

	got, err := kb.GetEntry(ctx, id, types.KBTypeCommon, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "PostgreSQL Connection Pool Exhaustion", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, kb.DeleteEntry(ctx, id, types.KBTypeCommon, ""))
	got, err = kb.GetEntry(ctx, id, types.KBTypeCommon, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchCommonCategoryScoping(t *testing.T) {
	embedder := newStubEmbedder().
		add("DB entry", []float32{1, 0, 0, 0}).
		add("Net entry", []float32{1, 0, 0, 0}).
		add("same failure either way", []float32{1, 0, 0, 0})
	kb := newTestKB(database.NewMemoryStore(), embedder)
	ctx := context.Background()

	dbID, err := kb.AddCommonEntry(ctx, commonEntry("DB entry", types.CategoryDatabase))
	require.NoError(t, err)
	_, err = kb.AddCommonEntry(ctx, commonEntry("Net entry", types.CategoryNetworking))
	require.NoError(t, err)

	category := types.CategoryDatabase
	results, err := kb.SearchCommon(ctx, "same failure either way", &category, 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, dbID, results[0].Entry.ID)

	results, err = kb.SearchCommon(ctx, "same failure either way", nil, 5, 0.3)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestTenantIsolation(t *testing.T) {
	embedder := newStubEmbedder().
		add("Acme VPN flakiness", []float32{0, 1, 0, 0}).
		add("vpn keeps dropping", []float32{0, 1, 0, 0})
	kb := newTestKB(database.NewMemoryStore(), embedder)
	ctx := context.Background()

	id, err := kb.AddTenantEntry(ctx, "acme", tenantEntry("Acme VPN flakiness"))
	require.NoError(t, err)

	results, err := kb.SearchTenant(ctx, "acme", "vpn keeps dropping", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].Entry.ID)
	assert.Equal(t, types.KBTypeTenant, results[0].Source)
	assert.Equal(t, "acme", results[0].Entry.TenantID)

	// Another tenant never sees acme's entries.
	results, err = kb.SearchTenant(ctx, "globex", "vpn keeps dropping", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Neither does the common knowledge base.
	results, err = kb.SearchCommon(ctx, "vpn keeps dropping", nil, 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTenantLifecycle(t *testing.T) {
	embedder := newStubEmbedder().
		add("Acme VPN flakiness", []float32{0, 1, 0, 0}).
		add("vpn keeps dropping", []float32{0, 1, 0, 0})
	kb := newTestKB(database.NewMemoryStore(), embedder)
	ctx := context.Background()

	_, err := kb.AddTenantEntry(ctx, "acme", tenantEntry("Acme VPN flakiness"))
	require.NoError(t, err)

	tenants, err := kb.ListTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, tenants)

	count, err := kb.TenantStats(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, kb.DeleteTenant(ctx, "acme"))

	results, err := kb.SearchTenant(ctx, "acme", "vpn keeps dropping", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)

	tenants, err = kb.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, tenants)

	// Deleting an absent tenant is a no-op.
	require.NoError(t, kb.DeleteTenant(ctx, "acme"))
}

func TestAddEntriesBatch(t *testing.T) {
	kb := newTestKB(database.NewMemoryStore(), newStubEmbedder())
	ctx := context.Background()

	first := commonEntry("First", types.CategoryDatabase)
	first.KBType = types.KBTypeCommon
	second := commonEntry("Second", types.CategoryDatabase)
	second.KBType = types.KBTypeCommon
	third := tenantEntry("Third")
	third.KBType = types.KBTypeTenant
	third.TenantID = "acme"

	ids, err := kb.AddEntries(ctx, []*types.KnowledgeBaseEntry{first, second, third})
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	count, err := kb.TenantStats(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEmbeddingOutage(t *testing.T) {
	kb := newTestKB(database.NewMemoryStore(), failingEmbedder{dim: 4})
	ctx := context.Background()

	_, err := kb.AddCommonEntry(ctx, commonEntry("Broken thing", types.CategoryDatabase))
	assert.True(t, errors.Is(err, types.ErrEmbeddingUnavailable))

	_, err = kb.SearchCommon(ctx, "query", nil, 5, 0.3)
	assert.True(t, errors.Is(err, types.ErrEmbeddingUnavailable))
}

func TestStoreOutage(t *testing.T) {
	kb := newTestKB(failingStore{}, newStubEmbedder())
	ctx := context.Background()

	_, err := kb.SearchCommon(ctx, "query", nil, 5, 0.3)
	assert.True(t, errors.Is(err, types.ErrStoreUnavailable))

	category := types.CategoryDatabase
	_, err = kb.SearchCommon(ctx, "query", &category, 5, 0.3)
	assert.True(t, errors.Is(err, types.ErrStoreUnavailable))
}
