package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"negprice/internal/api/handlers"
	"negprice/internal/api/middleware"
	"negprice/internal/config"
	"negprice/internal/engine"
	"negprice/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *cfgPath).Msg("loading config failed")
		}
		cfg = loaded
	}
	if port := os.Getenv("API_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &cfg.Server.Port)
	}

	results, err := store.OpenResults(cfg.Server.ResultsDir, cfg.ResultTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("opening result store failed")
	}
	defer results.Close()

	var sink engine.ArtifactSink
	if cfg.Server.ArtifactsDir != "" {
		s, err := store.NewSink(cfg.Server.ArtifactsDir)
		if err != nil {
			log.Fatal().Err(err).Msg("creating artifact sink failed")
		}
		sink = s
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	analyzeHandler := handlers.NewAnalyzeHandler(cfg, results, sink)
	resultsHandler := handlers.NewResultsHandler(results)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "schema_version": engine.SchemaVersion})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/analyze", analyzeHandler.Analyze)
		api.GET("/results/:id", resultsHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("starting API server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
