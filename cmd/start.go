package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/config"
	"github.com/opsmind-ai/kb-gateway/database"
	"github.com/opsmind-ai/kb-gateway/handler"
	"github.com/opsmind-ai/kb-gateway/service"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the knowledge base gateway server",
	Long:  `Starts the HTTP server exposing the analyze pipeline and the knowledge base management API`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		logger, err := buildLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
		defer logger.Sync()

		store, err := buildVectorStore(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize vector store", zap.Error(err))
		}
		embedder, err := buildEmbedder(cmd.Context(), cfg)
		if err != nil {
			logger.Fatal("failed to initialize embedding provider", zap.Error(err))
		}

		kbService := service.NewKnowledgeBaseService(store, embedder, logger)
		retriever := service.NewRetriever(kbService, logger,
			cfg.Retrieval.CommonTopK,
			cfg.Retrieval.TenantTopK,
			cfg.Retrieval.MaxResults,
			cfg.Retrieval.MinScore)
		synthesizer := service.NewSynthesizer()
		classifier := service.NewKeywordIntentClassifier()

		var ocr service.OCRService
		if cfg.OCR.Endpoint != "" {
			ocr = service.NewOCRClient(cfg.OCR.Endpoint, logger)
		}
		analyzeService := service.NewAnalyzeService(classifier, retriever, synthesizer, ocr, logger)

		analyzeHandler := handler.NewAnalyzeHandler(analyzeService)
		kbHandler := handler.NewKBHandler(kbService)
		tenantHandler := handler.NewTenantHandler(kbService)

		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(handler.RequestLogger(logger))
		router.Use(handler.CorsMiddleware)

		router.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true, "service": "kb-gateway"})
		})

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/analyze", analyzeHandler.HandleAnalyze)

			kb := apiV1.Group("/kb")
			kb.POST("/common", kbHandler.HandleAddCommonEntry)
			kb.POST("/tenant/:tenant_id", kbHandler.HandleAddTenantEntry)
			kb.GET("/search", kbHandler.HandleSearch)
			kb.GET("/entries/:entry_id", kbHandler.HandleGetEntry)
			kb.DELETE("/entries/:entry_id", kbHandler.HandleDeleteEntry)
			kb.GET("/tenants", tenantHandler.HandleListTenants)
			kb.GET("/tenants/:tenant_id/stats", tenantHandler.HandleTenantStats)
			kb.DELETE("/tenants/:tenant_id", tenantHandler.HandleDeleteTenant)
		}

		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := router.Run(":" + cfg.Port); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func buildLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildVectorStore(cfg *config.Config, logger *zap.Logger) (database.VectorStore, error) {
	switch cfg.VectorStore.Backend {
	case "qdrant":
		return database.NewQdrantStore(cfg.VectorStore.Qdrant, logger)
	case "weaviate":
		return database.NewWeaviateStore(cfg.VectorStore.Weaviate, logger)
	case "memory":
		return database.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStore.Backend)
	}
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (service.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return service.NewOpenAIEmbedder(
			cfg.Embedding.OpenAI.BaseURL,
			cfg.Embedding.OpenAI.APIKey,
			cfg.Embedding.OpenAI.Model,
			cfg.Embedding.Dimension), nil
	case "gemini":
		return service.NewGeminiEmbedder(ctx,
			cfg.Embedding.Gemini.APIKey,
			cfg.Embedding.Gemini.Model,
			cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}
