package types

import (
	"fmt"
	"strings"
	"time"
)

// KBType identifies which knowledge base an entry belongs to.
type KBType string

const (
	KBTypeCommon KBType = "common"
	KBTypeTenant KBType = "tenant"
)

// Category is the closed taxonomy of IT issue categories. Common KB
// collections are partitioned by category.
type Category string

const (
	CategoryDatabase      Category = "database"
	CategoryKubernetes    Category = "kubernetes"
	CategoryCICD          Category = "ci_cd"
	CategoryCloudInfra    Category = "cloud_infrastructure"
	CategoryObservability Category = "observability"
	CategoryStorage       Category = "storage"
	CategoryApplication   Category = "application"
	CategoryNetworking    Category = "networking"
	CategorySecurity      Category = "security"
	CategoryOther         Category = "other"
)

// AllCategories returns the full taxonomy in a fixed order. The order matters
// for deterministic fan-out and for stable merge results.
func AllCategories() []Category {
	return []Category{
		CategoryDatabase,
		CategoryKubernetes,
		CategoryCICD,
		CategoryCloudInfra,
		CategoryObservability,
		CategoryStorage,
		CategoryApplication,
		CategoryNetworking,
		CategorySecurity,
		CategoryOther,
	}
}

// ParseCategory rejects values outside the closed taxonomy.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCategories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Source types carried through to citations.
const (
	SourceTypeJira       = "jira"
	SourceTypeConfluence = "confluence"
	SourceTypeManual     = "manual"
	SourceTypeOther      = "other"
	SourceTypeCommonKB   = "kb"
	SourceTypeTenantKB   = "tenant_kb"
)

// KnowledgeBaseEntry is the atomic retrievable unit. The full entry is stored
// as the vector payload so a search hit returns it without a second lookup.
type KnowledgeBaseEntry struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id,omitempty"`
	KBType   KBType `json:"kb_type"`

	Title             string   `json:"title"`
	Phenomenon        string   `json:"phenomenon"`
	RootCauseAnalysis string   `json:"root_cause_analysis"`
	Solutions         []string `json:"solutions"`

	Category Category `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	SourceURL  string `json:"source_url,omitempty"`
	SourceType string `json:"source_type,omitempty"`
	TicketKey  string `json:"ticket_key,omitempty"`
	TicketID   string `json:"ticket_id,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// SearchableText is the canonical text the entry embedding is computed from.
func (e *KnowledgeBaseEntry) SearchableText() string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(e.Title)
	b.WriteString("\nPhenomenon: ")
	b.WriteString(e.Phenomenon)
	b.WriteString("\nRoot Cause: ")
	b.WriteString(e.RootCauseAnalysis)
	b.WriteString("\nSolutions:\n")
	for _, sol := range e.Solutions {
		b.WriteString("- ")
		b.WriteString(sol)
		b.WriteString("\n")
	}
	if len(e.Tags) > 0 {
		b.WriteString("Tags: ")
		b.WriteString(strings.Join(e.Tags, ", "))
		b.WriteString("\n")
	}
	if e.Category != "" {
		b.WriteString("Category: ")
		b.WriteString(string(e.Category))
	}
	return strings.TrimSpace(b.String())
}

// Validate enforces the entry schema before anything is written to the store.
func (e *KnowledgeBaseEntry) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.Phenomenon) == "" {
		return fmt.Errorf("%w: phenomenon is required", ErrInvalidEntry)
	}
	if len(e.Solutions) == 0 {
		return fmt.Errorf("%w: at least one solution is required", ErrInvalidEntry)
	}
	switch e.KBType {
	case KBTypeCommon:
		if e.Category == "" {
			return fmt.Errorf("%w: category is required for common entries", ErrInvalidCategory)
		}
		if _, err := ParseCategory(string(e.Category)); err != nil {
			return err
		}
		if e.TenantID != "" {
			return fmt.Errorf("%w: common entries must not carry a tenant_id", ErrInvalidEntry)
		}
	case KBTypeTenant:
		if strings.TrimSpace(e.TenantID) == "" {
			return fmt.Errorf("%w: tenant_id is required for tenant entries", ErrInvalidEntry)
		}
		if e.Category != "" {
			if _, err := ParseCategory(string(e.Category)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown kb_type %q", ErrInvalidEntry, e.KBType)
	}
	switch e.SourceType {
	case "", SourceTypeJira, SourceTypeConfluence, SourceTypeManual, SourceTypeOther:
	default:
		return fmt.Errorf("%w: unknown source_type %q", ErrInvalidEntry, e.SourceType)
	}
	return nil
}

// SearchResult is a single retrieval hit. Source records which knowledge base
// produced it, which drives merge tie-breaking and citation provenance.
type SearchResult struct {
	Entry  *KnowledgeBaseEntry `json:"entry"`
	Score  float32             `json:"score"`
	Source KBType              `json:"source"`
}

// SearchBothResults carries the two independent result lists of a dual
// knowledge base search. Merging is the retriever's job, not this type's.
type SearchBothResults struct {
	Common []SearchResult `json:"common"`
	Tenant []SearchResult `json:"tenant"`
}

// Citation is a provenance pointer attached to a synthesized answer.
type Citation struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	SourceType string `json:"source_type,omitempty"`
}

// Intent is the coarse classification of a query, used to narrow common KB
// retrieval and to feed the confidence model.
type Intent struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// IntentUnknown makes the retriever search all common categories.
const IntentUnknown = "unknown"

// Category returns the intent label as a category, or false when the label is
// unknown or outside the taxonomy.
func (i Intent) CategoryLabel() (Category, bool) {
	if i.Label == IntentUnknown || i.Label == "" {
		return "", false
	}
	c, err := ParseCategory(i.Label)
	if err != nil {
		return "", false
	}
	return c, true
}

// OCRResult is the OCR collaborator's output for a screenshot.
type OCRResult struct {
	ErrorSummary string   `json:"error_summary"`
	FullText     string   `json:"full_text"`
	ErrorLines   []string `json:"error_lines"`
	Confidence   float64  `json:"confidence"`
}
