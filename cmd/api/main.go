package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/quangtd/shelfcheck-golang/internal/blobstore"
	"github.com/quangtd/shelfcheck-golang/internal/database"
	"github.com/quangtd/shelfcheck-golang/internal/handlers"
	"github.com/quangtd/shelfcheck-golang/internal/repository"
	"github.com/quangtd/shelfcheck-golang/internal/routes"
	"github.com/quangtd/shelfcheck-golang/internal/workflow"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Blob Store (check photos) ---
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	blobs, err := blobstore.NewLocal(uploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload directory: %v", err)
	}

	// 3. --- Wire Dependencies ---
	repo := repository.NewProductRepo(db)
	app := &handlers.Handlers{
		Svc:       workflow.NewService(repo, blobs),
		Employees: repo,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, uploadDir)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("Starting shelf-check API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
