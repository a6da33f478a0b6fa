package handler

import (
	"errors"
	"net/http"

	"github.com/Buffnet/Zoho-Books/internal/services/analysis"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	service *analysis.Service
}

func NewAnalysisHandler(service *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

type analysisRequest struct {
	Query   string `json:"query" binding:"required"`
	CSVData string `json:"csv_data"`
}

func (h *AnalysisHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Zoho Invoice Analyzer API",
		"endpoints": []string{
			"GET /health", "GET /invoices", "POST /analyze", "POST /analyze-free",
		},
	})
}

func (h *AnalysisHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"cache_size": h.service.CacheSize(),
	})
}

func (h *AnalysisHandler) ListInvoices(c *gin.Context) {
	invoices, err := h.service.Invoices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "count": len(invoices)})
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	res, err := h.service.Analyze(c.Request.Context(), req.Query, req.CSVData)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AnalysisHandler) AnalyzeFree(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	res, err := h.service.AnalyzeFree(req.Query, req.CSVData)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AnalysisHandler) writeAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, analysis.ErrBadCSV):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CSV data format"})
	case errors.Is(err, analysis.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No invoice data found. Run the scraper first or provide CSV data.",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
