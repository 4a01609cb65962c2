package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agenthands/groundtruth/internal/config"
	"github.com/agenthands/groundtruth/internal/logging"
	"github.com/agenthands/groundtruth/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Resolve(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Refusing to start", zap.Error(err))
	}

	gin.SetMode(cfg.Server.Mode)

	srv := server.NewServer(cfg, logger)
	r := srv.SetupRouter()

	logger.Info("Starting server",
		zap.String("port", cfg.Server.Port),
		zap.String("objectType", cfg.HubSpot.CustomObjectType),
		zap.Bool("serializeSubjects", cfg.Association.SerializeSubjects),
	)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
