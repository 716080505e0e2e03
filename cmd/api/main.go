package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/config"
	"alfredoptarigan/cv-analyzer/internal/handlers"
	"alfredoptarigan/cv-analyzer/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	config.SetupLogger(cfg)
	log.Println("✅ Config loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cvRepo, err := config.InitCVRepository(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	log.Println("✅ Repositories initialized successfully")

	storageService, err := initStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}

	persister := services.NewMetadataPersister(cvRepo, cfg.Analysis.MetadataMaxAttempts)
	extractor := services.NewUploadExtractor(services.NewPDFParserService())
	log.Println("✅ Services initialized successfully")

	// The RAG analyzer is only available with an LLM; the heuristic analyzer
	// always is.
	analyzers := []services.Analyzer{}
	llm, err := services.NewLLMService(cfg.LLM.Provider, cfg.LLMCredentials(), cfg.LLM.Model, cfg.LLM.EmbeddingModel)
	if err != nil {
		log.Warnf("⚠️  LLM unavailable, analysis will use heuristics only: %v", err)
		llm = nil
	} else {
		log.Printf("✅ LLM provider %s initialized successfully", cfg.LLM.Provider)

		if rag, err := initRAG(ctx, cfg, llm); err != nil {
			log.Warnf("⚠️  RAG unavailable, analysis will use heuristics only: %v", err)
		} else {
			analyzers = append(analyzers, services.NewRAGAnalyzer(rag, cfg.Analysis.RAGInitTimeout))
		}
	}
	analyzers = append(analyzers, services.NewHeuristicAnalyzer())

	pipeline := services.NewAnalysisPipeline(
		services.NewIntakeValidator(cvRepo),
		services.NewAnalyzerChain(analyzers...),
		persister,
	)
	log.Println("✅ Analysis pipeline initialized")

	converter := services.NewDocumentConverter(cvRepo, persister, storageService, conversionStrategies(cfg)...)

	optimizer := services.NewOptimizerService(cvRepo, persister, llm, cfg.LLM.MaxRetries, cfg.Worker.ClaimTimeout)
	worker := services.NewWorker(cvRepo, optimizer, cfg.Worker.Concurrency, cfg.Worker.PollInterval, cfg.Worker.ClaimTimeout)
	worker.Start(ctx)

	router := &handlers.Router{
		Analyze: handlers.NewAnalyzeHandler(pipeline),
		Convert: handlers.NewConvertHandler(converter),
		Upload:  handlers.NewUploadHandler(cvRepo, storageService, extractor, cfg.Storage.MaxFileSize),
		CV:      handlers.NewCVHandler(cvRepo, optimizer, worker),
	}
	log.Println("✅ Handlers initialized")

	app := fiber.New(fiber.Config{
		AppName:      "CV Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 2,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.UserIDHeader,
	}))

	router.Register(app)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func initStorage(ctx context.Context, cfg *config.Config) (services.StorageService, error) {
	switch cfg.Storage.Driver {
	case "s3":
		log.Printf("☁️  Storing uploads in s3://%s/%s", cfg.Storage.AWSBucket, cfg.Storage.AWSPrefix)
		return services.NewS3Storage(ctx, cfg.Storage.AWSRegion, cfg.Storage.AWSBucket, cfg.Storage.AWSPrefix)
	case "local", "":
		return services.NewStorageService(cfg.Storage.UploadPath)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
}

func initRAG(ctx context.Context, cfg *config.Config, llm services.LLMService) (services.RAGService, error) {
	store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.InitCollection(initCtx); err != nil {
		return nil, err
	}
	log.Println("✅ Qdrant initialized successfully")

	cache := services.NewNoopCache()
	if cfg.Redis.Addr != "" {
		client, err := services.NewRedisClient(initCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warnf("⚠️  Redis unavailable, RAG answers will not be cached: %v", err)
		} else {
			cache = services.NewRedisCache(client, "cv-analyzer:", cfg.Redis.TTL)
			log.Println("✅ Redis cache connected")
		}
	}

	return services.NewRAGService(llm, store, cache, cfg.LLM.MaxRetries), nil
}

func conversionStrategies(cfg *config.Config) []services.ConversionStrategy {
	strategies := []services.ConversionStrategy{
		services.NewCachedStrategy(),
		services.NewOfficeStrategy(services.NewExecRunner(), services.OfficeOptions{
			Binary:      cfg.Converter.OfficeBinary,
			Timeout:     cfg.Converter.OfficeTimeout,
			SettleDelay: cfg.Converter.SettleDelay,
			ScratchDir:  cfg.Converter.ScratchDir,
		}),
	}

	if cfg.Converter.ChromeEnabled {
		strategies = append(strategies, services.NewChromeStrategy(cfg.Converter.ChromePath, cfg.Converter.ScratchDir))
	}

	return append(strategies,
		services.NewRenderStrategy(cfg.Converter.WrapWidth),
		services.NewEmergencyStrategy(),
	)
}
