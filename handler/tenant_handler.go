package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsmind-ai/kb-gateway/service"
	"github.com/opsmind-ai/kb-gateway/types"
)

type TenantHandler struct {
	kbService *service.KnowledgeBaseService
}

func NewTenantHandler(kbService *service.KnowledgeBaseService) *TenantHandler {
	return &TenantHandler{
		kbService: kbService,
	}
}

func (h *TenantHandler) HandleListTenants(c *gin.Context) {
	tenants, err := h.kbService.ListTenants(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, types.TenantListResponse{Tenants: tenants})
}

func (h *TenantHandler) HandleTenantStats(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	count, err := h.kbService.TenantStats(c.Request.Context(), tenantID)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, types.TenantStatsResponse{
		TenantID:   tenantID,
		EntryCount: count,
	})
}

// HandleDeleteTenant destroys the tenant's knowledge base. Idempotent:
// deleting a tenant that has no collection succeeds.
func (h *TenantHandler) HandleDeleteTenant(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if err := h.kbService.DeleteTenant(c.Request.Context(), tenantID); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  "success",
		Message: fmt.Sprintf("deleted knowledge base for tenant %s", tenantID),
	})
}
