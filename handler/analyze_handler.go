package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/opsmind-ai/kb-gateway/service"
	"github.com/opsmind-ai/kb-gateway/types"
)

type AnalyzeHandler struct {
	analyzeService *service.AnalyzeService
}

func NewAnalyzeHandler(analyzeService *service.AnalyzeService) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzeService: analyzeService,
	}
}

func (h *AnalyzeHandler) HandleAnalyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
		return
	}

	response, err := h.analyzeService.Analyze(c.Request.Context(), &req)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, response)
}
