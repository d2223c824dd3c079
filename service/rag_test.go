package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmind-ai/kb-gateway/types"
)

func resultFor(entry *types.KnowledgeBaseEntry, score float32, source types.KBType) types.SearchResult {
	return types.SearchResult{Entry: entry, Score: score, Source: source}
}

func TestSynthesizeNoResults(t *testing.T) {
	out := NewSynthesizer().Synthesize("anything", nil, types.Intent{Label: types.IntentUnknown, Confidence: 0.25})
	assert.Equal(t, NoMatchAnswer, out.Answer)
	assert.Zero(t, out.Confidence)
	assert.NotNil(t, out.Citations)
	assert.Empty(t, out.Citations)
	assert.NotNil(t, out.KBSuggestions)
	assert.Empty(t, out.KBSuggestions)
}

func TestSynthesizeAnswerComposition(t *testing.T) {
	entry := commonEntry("PostgreSQL Connection Pool Exhaustion", types.CategoryDatabase,
		"Increase max_connections", "Use PgBouncer", "Close leaked connections")
	out := NewSynthesizer().Synthesize("pg is down",
		[]types.SearchResult{resultFor(entry, 0.9, types.KBTypeCommon)},
		types.Intent{Label: string(types.CategoryDatabase), Confidence: 0.6})

	assert.Contains(t, out.Answer, "Likely match: PostgreSQL Connection Pool Exhaustion")
	assert.Contains(t, out.Answer, "1. Increase max_connections")
	assert.Contains(t, out.Answer, "2. Use PgBouncer")
	assert.NotContains(t, out.Answer, "organization's knowledge base")

	require.Len(t, out.Citations, 1)
	assert.Equal(t, "PostgreSQL Connection Pool Exhaustion", out.Citations[0].Title)
	assert.Equal(t, types.SourceTypeCommonKB, out.Citations[0].SourceType)
	assert.Empty(t, out.KBSuggestions)
}

func TestSynthesizeTenantTopHit(t *testing.T) {
	entry := tenantEntry("Acme VPN flakiness", "Rotate the VPN certificate")
	entry.TenantID = "acme"
	entry.TicketKey = "OPS-421"
	out := NewSynthesizer().Synthesize("vpn down",
		[]types.SearchResult{resultFor(entry, 0.8, types.KBTypeTenant)},
		types.Intent{Label: string(types.CategoryNetworking), Confidence: 0.5})

	assert.Contains(t, out.Answer, "organization's knowledge base")
	assert.Contains(t, out.Answer, "OPS-421")
	require.Len(t, out.Citations, 1)
	assert.Equal(t, types.SourceTypeTenantKB, out.Citations[0].SourceType)
}

func TestSynthesizeCitationsFollowRankingOrder(t *testing.T) {
	results := []types.SearchResult{
		resultFor(commonEntry("First", types.CategoryDatabase), 0.9, types.KBTypeCommon),
		resultFor(tenantEntry("Second"), 0.8, types.KBTypeTenant),
		resultFor(commonEntry("Third", types.CategoryDatabase), 0.7, types.KBTypeCommon),
		resultFor(commonEntry("Fourth", types.CategoryDatabase), 0.6, types.KBTypeCommon),
		resultFor(commonEntry("Fifth", types.CategoryDatabase), 0.5, types.KBTypeCommon),
	}
	results[2].Entry.SourceType = types.SourceTypeJira
	results[2].Entry.SourceURL = "https://jira.example.com/browse/OPS-7"

	out := NewSynthesizer().Synthesize("q", results, types.Intent{Label: types.IntentUnknown, Confidence: 0.25})

	require.Len(t, out.Citations, 5)
	for i, want := range []string{"First", "Second", "Third", "Fourth", "Fifth"} {
		assert.Equal(t, want, out.Citations[i].Title)
	}
	// A stored source type wins over the provenance fallback.
	assert.Equal(t, types.SourceTypeJira, out.Citations[2].SourceType)
	assert.Equal(t, "https://jira.example.com/browse/OPS-7", out.Citations[2].URL)

	// Suggestions skip the top result and cap at three.
	require.Len(t, out.KBSuggestions, 3)
	assert.Equal(t, "Second", out.KBSuggestions[0].Title)
	assert.Equal(t, "Fourth", out.KBSuggestions[2].Title)
}

func TestConfidenceMonotoneInTopScore(t *testing.T) {
	s := NewSynthesizer()
	intent := types.Intent{Label: string(types.CategoryDatabase), Confidence: 0.6}
	entry := commonEntry("Entry", types.CategoryDatabase)

	prev := -1.0
	for _, score := range []float32{-0.5, 0, 0.2, 0.4, 0.6, 0.8, 1} {
		out := s.Synthesize("q", []types.SearchResult{resultFor(entry, score, types.KBTypeCommon)}, intent)
		assert.GreaterOrEqual(t, out.Confidence, prev, "score %v", score)
		assert.GreaterOrEqual(t, out.Confidence, 0.0)
		assert.LessOrEqual(t, out.Confidence, 1.0)
		prev = out.Confidence
	}
}

func TestConfidenceTenantBonus(t *testing.T) {
	s := NewSynthesizer()
	intent := types.Intent{Label: string(types.CategoryDatabase), Confidence: 0.6}

	common := s.Synthesize("q",
		[]types.SearchResult{resultFor(commonEntry("E", types.CategoryDatabase), 0.5, types.KBTypeCommon)}, intent)
	tenant := s.Synthesize("q",
		[]types.SearchResult{resultFor(tenantEntry("E"), 0.5, types.KBTypeTenant)}, intent)

	assert.Greater(t, tenant.Confidence, common.Confidence)
}

func TestSynthesizeDeterministic(t *testing.T) {
	results := []types.SearchResult{
		resultFor(commonEntry("First", types.CategoryDatabase), 0.9, types.KBTypeCommon),
		resultFor(tenantEntry("Second"), 0.8, types.KBTypeTenant),
	}
	intent := types.Intent{Label: string(types.CategoryDatabase), Confidence: 0.6}

	first := NewSynthesizer().Synthesize("q", results, intent)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, NewSynthesizer().Synthesize("q", results, intent))
	}
}
