package service

import (
	"fmt"
	"strings"

	"github.com/opsmind-ai/kb-gateway/types"
)

// Confidence weights. The similarity term dominates so confidence is strictly
// monotone in the top result's score; the tenant bonus encodes that a
// tenant-specific hit is domain-precise for the asking tenant.
const (
	weightSimilarity = 0.65
	weightIntent     = 0.20
	tenantHitBonus   = 0.15
)

// NoMatchAnswer is returned when retrieval produced nothing usable. Callers
// can rely on this exact answer plus confidence 0 to mean "no knowledge
// found", which is a valid outcome and never an error.
const NoMatchAnswer = "No matching knowledge base entry was found for this problem. " +
	"Consider documenting the resolution as a new entry once the issue is solved."

// SynthesisResult is the synthesizer's output.
type SynthesisResult struct {
	Answer        string
	Citations     []types.Citation
	Confidence    float64
	KBSuggestions []types.Citation
}

// Synthesizer composes a grounded answer from ranked retrieval results. It is
// deterministic: no model call, same input, same answer. It never re-sorts
// its input; the retriever's ranking (including tenant-over-common
// tie-breaks) is authoritative.
type Synthesizer struct {
	maxSuggestions int
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{maxSuggestions: 3}
}

func (s *Synthesizer) Synthesize(query string, results []types.SearchResult, intent types.Intent) *SynthesisResult {
	if len(results) == 0 {
		return &SynthesisResult{
			Answer:        NoMatchAnswer,
			Citations:     []types.Citation{},
			Confidence:    0,
			KBSuggestions: []types.Citation{},
		}
	}

	top := results[0]
	answer := s.composeAnswer(top)

	citations := make([]types.Citation, 0, len(results))
	for _, result := range results {
		citations = append(citations, citationFor(result))
	}

	suggestions := make([]types.Citation, 0, s.maxSuggestions)
	for _, result := range results[1:] {
		if len(suggestions) == s.maxSuggestions {
			break
		}
		suggestions = append(suggestions, citationFor(result))
	}

	return &SynthesisResult{
		Answer:        answer,
		Citations:     citations,
		Confidence:    s.confidence(top, intent),
		KBSuggestions: suggestions,
	}
}

// composeAnswer renders the top entry: the matching context first, then the
// remediation steps in their stored order (the first listed is the primary
// remedy).
func (s *Synthesizer) composeAnswer(top types.SearchResult) string {
	entry := top.Entry
	var b strings.Builder
	fmt.Fprintf(&b, "Likely match: %s\n\n", entry.Title)
	fmt.Fprintf(&b, "Observed phenomenon: %s\n", entry.Phenomenon)
	if entry.RootCauseAnalysis != "" {
		fmt.Fprintf(&b, "Root cause: %s\n", entry.RootCauseAnalysis)
	}
	b.WriteString("\nRecommended steps:\n")
	for i, solution := range entry.Solutions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, solution)
	}
	if top.Source == types.KBTypeTenant {
		b.WriteString("\nThis match comes from your organization's knowledge base.")
		if entry.TicketKey != "" {
			fmt.Fprintf(&b, " Related ticket: %s.", entry.TicketKey)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// confidence combines the top similarity score, the intent classifier's
// confidence and a bonus for a tenant-sourced top hit, clamped to [0, 1].
// Holding intent and tenant presence fixed, it is monotone non-decreasing in
// the similarity score.
func (s *Synthesizer) confidence(top types.SearchResult, intent types.Intent) float64 {
	score := float64(top.Score)
	if score < 0 {
		score = 0
	}
	conf := weightSimilarity*score + weightIntent*intent.Confidence
	if top.Source == types.KBTypeTenant {
		conf += tenantHitBonus
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

func citationFor(result types.SearchResult) types.Citation {
	entry := result.Entry
	citation := types.Citation{
		Title:      entry.Title,
		URL:        entry.SourceURL,
		SourceType: entry.SourceType,
	}
	if citation.SourceType == "" {
		if result.Source == types.KBTypeTenant {
			citation.SourceType = types.SourceTypeTenantKB
		} else {
			citation.SourceType = types.SourceTypeCommonKB
		}
	}
	return citation
}
