package routes

import (
	"github.com/gin-gonic/gin"

	handler "github.com/Buffnet/Zoho-Books/internal/handlers"
	"github.com/Buffnet/Zoho-Books/internal/services/analysis"
)

func RegisterRoutes(r *gin.Engine, service *analysis.Service) {
	h := handler.NewAnalysisHandler(service)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/invoices", h.ListInvoices)
	r.POST("/analyze", h.Analyze)
	r.POST("/analyze-free", h.AnalyzeFree)
}
