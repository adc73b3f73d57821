package main

import (
	"log"
	"os"

	"idea-review-api/config"
	"idea-review-api/controllers"
	"idea-review-api/middleware"
	"idea-review-api/routes"
	"idea-review-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	config.InitDB()

	// Feature flags are read once and handed to the engine explicitly.
	features := config.LoadFeatures()
	controllers.Setup(config.DB, features)

	if features.MultiStageReview {
		admin := services.NewPipelineAdminService(config.DB)
		if err := admin.EnsureDefaultPipelines(); err != nil {
			log.Printf("Warning: Failed to seed default pipelines: %v", err)
		}
	}

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Setup routes
	routes.SetupRoutes(router)

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	log.Printf("Multi-stage review enabled: %v", features.MultiStageReview)
	log.Printf("Drafts enabled: %v", features.Drafts)
	log.Printf("Blind review enabled: %v", features.BlindReview)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
