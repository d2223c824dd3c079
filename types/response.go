package types

// DataResponse is the common response envelope.
type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// AnalyzeDebug carries per-request observability metadata. It is assembled
// fresh for every analyze call and never persisted.
type AnalyzeDebug struct {
	Intent           string   `json:"intent"`
	IntentConfidence float64  `json:"intent_confidence"`
	NumCommonKB      int      `json:"num_common_kb"`
	NumTenantKB      int      `json:"num_tenant_kb"`
	TenantID         string   `json:"tenant_id,omitempty"`
	Degraded         []string `json:"degraded,omitempty"`
	ScreenshotUsed   bool     `json:"screenshot_used,omitempty"`
	OCRSummary       string   `json:"ocr_summary,omitempty"`
}

// AnalyzeResponse is the pipeline's output.
type AnalyzeResponse struct {
	Answer        string       `json:"answer"`
	Citations     []Citation   `json:"citations"`
	Confidence    float64      `json:"confidence"`
	KBSuggestions []Citation   `json:"kb_suggestions"`
	Debug         AnalyzeDebug `json:"debug"`
}

// KBEntryResponse acknowledges a successful entry write.
type KBEntryResponse struct {
	EntryID string `json:"entry_id"`
	Message string `json:"message"`
}

// TenantListResponse lists tenants that have a knowledge base collection.
type TenantListResponse struct {
	Tenants []string `json:"tenants"`
}

// TenantStatsResponse reports per-tenant knowledge base statistics.
type TenantStatsResponse struct {
	TenantID   string `json:"tenant_id"`
	EntryCount int    `json:"entry_count"`
}
