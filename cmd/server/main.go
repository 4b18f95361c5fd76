package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yishak-cs/wardrobe/internal/ai"
	"github.com/yishak-cs/wardrobe/internal/blob"
	"github.com/yishak-cs/wardrobe/internal/database"
	"github.com/yishak-cs/wardrobe/internal/handlers"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/services"
	"github.com/yishak-cs/wardrobe/pkg/helper"
)

const localBlobRoute = "/uploads"

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	config, err := helper.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog, err := logger.New(config.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()
	if envErr != nil {
		appLog.Warn("No .env file loaded", "error", envErr)
	}

	// Initialize Neo4j client
	neo4jClient, err := database.NewNeo4jClient(config.Neo4j, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to Neo4j", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := neo4jClient.Close(ctx); err != nil {
			appLog.Error("Error closing Neo4j connection", "error", err)
		}
	}()

	migrator := database.NewSchemaMigrator(neo4jClient, appLog)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := migrator.EnsureSchema(ctx); err != nil {
		cancel()
		appLog.Fatal("Schema setup failed", "error", err)
	}
	if status, err := migrator.GetStoreStatus(ctx); err != nil {
		appLog.Warn("Failed to get store status", "error", err)
	} else {
		appLog.Info("Store status", "nodes", status)
	}
	cancel()

	// Usage counters live in Redis when configured, otherwise next to the rest of the data
	var usageStore services.UsageStore = database.NewUsageStore(neo4jClient)
	if config.Redis.Addr != "" {
		redisStore, err := database.NewRedisUsageStore(config.Redis)
		if err != nil {
			appLog.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisStore.Close()
		usageStore = redisStore
		appLog.Info("Using Redis usage counters", "addr", config.Redis.Addr)
	}

	// Setup Gin router
	if strings.HasPrefix(strings.ToLower(config.LogMode), "prod") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		handlers.RequestID(),
		handlers.RequestLogger(appLog),
		handlers.Metrics(),
		handlers.CORS(config.CORSOrigins),
	)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var blobStore services.BlobStore
	if config.GCS.Bucket != "" {
		gcsStore, err := blob.NewGCSStore(context.Background(), config.GCS)
		if err != nil {
			appLog.Fatal("Failed to initialize GCS", "error", err)
		}
		defer gcsStore.Close()
		blobStore = gcsStore
		appLog.Info("Storing images in GCS", "bucket", config.GCS.Bucket)
	} else {
		localStore, err := blob.NewLocalStore(config.LocalBlobDir, localBlobRoute)
		if err != nil {
			appLog.Fatal("Failed to initialize local image store", "error", err)
		}
		router.Static(localBlobRoute, localStore.Root())
		blobStore = localStore
		appLog.Info("Storing images on disk", "dir", localStore.Root())
	}

	aiClient, err := ai.New(config.AI, appLog)
	if err != nil {
		appLog.Fatal("Failed to initialize AI client", "error", err)
	}

	// Initialize services
	catalogStore := database.NewCatalogStore(neo4jClient)
	preferences := services.NewPreferenceAggregator(database.NewPreferenceStore(neo4jClient), appLog)
	profiles := services.NewProfileService(database.NewProfileStore(neo4jClient), appLog)
	limiter := services.NewRateLimiter(usageStore, appLog)

	wardrobeService := services.NewWardrobeService(catalogStore, blobStore, aiClient, appLog)
	outfitService := services.NewOutfitService(catalogStore, database.NewOutfitStore(neo4jClient), preferences, profiles, limiter, aiClient, appLog)
	recommendationService := services.NewRecommendationService(catalogStore, preferences, limiter, aiClient, appLog)

	// Initialize API handlers
	apiHandler := handlers.NewAPIHandler(
		wardrobeService,
		outfitService,
		preferences,
		profiles,
		limiter,
		recommendationService,
		neo4jClient,
		migrator,
		appLog,
	)

	// Setup API routes
	apiHandler.SetupRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, handlers.ErrorEnvelope{Error: handlers.APIError{Message: "API endpoint not found", Code: "NOT_FOUND"}})
			return
		}
		c.Status(http.StatusNotFound)
	})

	// Create server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		appLog.Info("Server starting", "port", config.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Gracefully shutdown with a timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", "error", err)
		return
	}

	appLog.Info("Server exited properly")
}
