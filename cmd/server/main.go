package main

import (
	"log"
	"time"

	"github.com/Buffnet/Zoho-Books/internal/config"
	"github.com/Buffnet/Zoho-Books/internal/routes"
	"github.com/Buffnet/Zoho-Books/internal/services/analysis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()

	service := analysis.NewService(
		config.String("INVOICES_CSV", "invoices.csv"),
		analysis.NewLLMClient(),
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	routes.RegisterRoutes(r, service)

	port := config.String("PORT", "8080")
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
