package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsmind-ai/kb-gateway/service"
	"github.com/opsmind-ai/kb-gateway/types"
)

type KBHandler struct {
	kbService *service.KnowledgeBaseService
}

func NewKBHandler(kbService *service.KnowledgeBaseService) *KBHandler {
	return &KBHandler{
		kbService: kbService,
	}
}

func (h *KBHandler) HandleAddCommonEntry(c *gin.Context) {
	var req types.CommonEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
		return
	}
	category, err := types.ParseCategory(req.Category)
	if err != nil {
		sendError(c, err)
		return
	}

	entry := &types.KnowledgeBaseEntry{
		Title:             req.Title,
		Phenomenon:        req.Phenomenon,
		RootCauseAnalysis: req.RootCauseAnalysis,
		Solutions:         req.Solutions,
		Category:          category,
		Tags:              req.Tags,
		SourceURL:         req.SourceURL,
		SourceType:        req.SourceType,
	}
	entryID, err := h.kbService.AddCommonEntry(c.Request.Context(), entry)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, types.KBEntryResponse{
		EntryID: entryID,
		Message: "added entry to common knowledge base",
	})
}

func (h *KBHandler) HandleAddTenantEntry(c *gin.Context) {
	tenantID := c.Param("tenant_id")

	var req types.TenantEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
		return
	}

	entry := &types.KnowledgeBaseEntry{
		Title:             req.Title,
		Phenomenon:        req.Phenomenon,
		RootCauseAnalysis: req.RootCauseAnalysis,
		Solutions:         req.Solutions,
		Tags:              req.Tags,
		SourceURL:         req.SourceURL,
		SourceType:        req.SourceType,
		TicketKey:         req.TicketKey,
		TicketID:          req.TicketID,
	}
	// Category is optional for tenant entries.
	if req.Category != "" {
		category, err := types.ParseCategory(req.Category)
		if err != nil {
			sendError(c, err)
			return
		}
		entry.Category = category
	}

	entryID, err := h.kbService.AddTenantEntry(c.Request.Context(), tenantID, entry)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, types.KBEntryResponse{
		EntryID: entryID,
		Message: fmt.Sprintf("added entry to tenant %s knowledge base", tenantID),
	})
}

func (h *KBHandler) HandleSearch(c *gin.Context) {
	var req types.KBSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		sendError(c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
		return
	}

	var category *types.Category
	if req.Category != "" {
		parsed, err := types.ParseCategory(req.Category)
		if err != nil {
			sendError(c, err)
			return
		}
		category = &parsed
	}

	results, err := h.kbService.SearchBoth(c.Request.Context(), req.Query, req.TenantID,
		category, req.CommonTopK, req.TenantTopK, req.MinScore)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, results)
}

func (h *KBHandler) HandleGetEntry(c *gin.Context) {
	entryID := c.Param("entry_id")
	kbType, tenantID, err := kbTypeFromQuery(c)
	if err != nil {
		sendError(c, err)
		return
	}

	entry, err := h.kbService.GetEntry(c.Request.Context(), entryID, kbType, tenantID)
	if err != nil {
		sendError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  "error",
			Message: fmt.Sprintf("entry %s not found", entryID),
		})
		return
	}
	sendSuccess(c, entry)
}

func (h *KBHandler) HandleDeleteEntry(c *gin.Context) {
	entryID := c.Param("entry_id")
	kbType, tenantID, err := kbTypeFromQuery(c)
	if err != nil {
		sendError(c, err)
		return
	}

	if err := h.kbService.DeleteEntry(c.Request.Context(), entryID, kbType, tenantID); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, types.KBEntryResponse{
		EntryID: entryID,
		Message: "entry deleted",
	})
}

func kbTypeFromQuery(c *gin.Context) (types.KBType, string, error) {
	tenantID := c.Query("tenant_id")
	switch c.DefaultQuery("kb_type", string(types.KBTypeCommon)) {
	case string(types.KBTypeCommon):
		return types.KBTypeCommon, "", nil
	case string(types.KBTypeTenant):
		if tenantID == "" {
			return "", "", fmt.Errorf("%w: tenant_id is required for kb_type=tenant", types.ErrInvalidArgument)
		}
		return types.KBTypeTenant, tenantID, nil
	default:
		return "", "", fmt.Errorf("%w: kb_type must be common or tenant", types.ErrInvalidArgument)
	}
}
