package main

import (
	"log"
	"os"

	"alterearth/internal/db"
	"alterearth/internal/router"
	"alterearth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// Initialize Database
	db.Init()

	// Background ledger reconciliation
	ranking := services.GetRankingService()
	sweeper := ranking.StartScheduledSweep()
	defer sweeper.Stop()

	// Initialize Gin
	r := gin.Default()
	router.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("AlterEarth core starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
