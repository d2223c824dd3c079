package types

// AnalyzeRequest is the pipeline entry point payload. At least one of
// QueryText, ScreenshotText or Screenshot must be present. Screenshot is raw
// image bytes (base64 in JSON) handed to the OCR collaborator when no
// pre-extracted screenshot text is supplied.
type AnalyzeRequest struct {
	QueryText      string            `json:"query_text,omitempty"`
	ScreenshotText string            `json:"screenshot_text,omitempty"`
	Screenshot     []byte            `json:"screenshot,omitempty"`
	TenantID       string            `json:"tenant_id,omitempty"`
	Context        map[string]string `json:"context,omitempty"`
}

// CommonEntryRequest adds an entry to the common knowledge base.
type CommonEntryRequest struct {
	Title             string   `json:"title"`
	Phenomenon        string   `json:"phenomenon"`
	RootCauseAnalysis string   `json:"root_cause_analysis"`
	Solutions         []string `json:"solutions"`
	Category          string   `json:"category"`
	Tags              []string `json:"tags,omitempty"`
	SourceURL         string   `json:"source_url,omitempty"`
	SourceType        string   `json:"source_type,omitempty"`
}

// TenantEntryRequest adds an entry to a tenant's knowledge base. The tenant id
// comes from the URL path.
type TenantEntryRequest struct {
	Title             string   `json:"title"`
	Phenomenon        string   `json:"phenomenon"`
	RootCauseAnalysis string   `json:"root_cause_analysis"`
	Solutions         []string `json:"solutions"`
	Category          string   `json:"category,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	SourceURL         string   `json:"source_url,omitempty"`
	SourceType        string   `json:"source_type,omitempty"`
	TicketKey         string   `json:"ticket_key,omitempty"`
	TicketID          string   `json:"ticket_id,omitempty"`
}

// KBSearchRequest drives the dual knowledge base search endpoint.
type KBSearchRequest struct {
	Query      string  `form:"query" json:"query"`
	TenantID   string  `form:"tenant_id" json:"tenant_id,omitempty"`
	Category   string  `form:"category" json:"category,omitempty"`
	CommonTopK int     `form:"common_top_k,default=5" json:"common_top_k,omitempty"`
	TenantTopK int     `form:"tenant_top_k,default=5" json:"tenant_top_k,omitempty"`
	MinScore   float32 `form:"min_score,default=0.3" json:"min_score,omitempty"`
}
