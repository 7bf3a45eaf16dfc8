package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nemuri-labs/nemuri/internal/api/handlers"
	"github.com/nemuri-labs/nemuri/internal/assemblyai"
	"github.com/nemuri-labs/nemuri/internal/config"
	"github.com/nemuri-labs/nemuri/internal/hume"
	"github.com/nemuri-labs/nemuri/internal/openai"
	"github.com/nemuri-labs/nemuri/internal/repository"
	"github.com/nemuri-labs/nemuri/internal/server"
	"github.com/nemuri-labs/nemuri/internal/service"
	"github.com/nemuri-labs/nemuri/internal/storage"
	"github.com/nemuri-labs/nemuri/internal/store"
	"github.com/nemuri-labs/nemuri/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the nemuri API server on the specified port",
		RunE:  runServe,
	}

	addServeFlags(cmd.Flags())

	return cmd
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.StringP("port", "p", "8080", "Port to listen on")
	fs.Bool("no-migrate", false, "Skip automatic database migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	openaiClient := openai.NewClient(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		ChatModel:           cfg.OpenAIModel,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})

	vectorRepo := repository.NewVectorRepository(pool)
	knowledgeSvc := service.NewKnowledgeService(openaiClient, vectorRepo, cfg.VectorIndex, cfg.VectorNamespace)
	log.Printf("knowledge base ready (index %q, namespace %q)", cfg.VectorIndex, cfg.VectorNamespace)
	chatSvc := service.NewChatService(knowledgeSvc, openaiClient, store.NewMemoryStore())

	chatHandler := handlers.NewChatHandler(chatSvc)
	knowledgeHandler := handlers.NewKnowledgeHandler(knowledgeSvc)

	var transcribeHandler *handlers.TranscribeHandler
	if cfg.HasAssemblyAI() {
		transcribeHandler = handlers.NewTranscribeHandler(assemblyai.NewClient(assemblyai.Config{
			APIKey:  cfg.AssemblyAIAPIKey,
			BaseURL: cfg.AssemblyAIBaseURL,
		}))
		log.Println("transcription proxy enabled")
	}

	var humeHandler *handlers.HumeHandler
	var archiveHandler *handlers.ArchiveHandler
	if cfg.HasHume() {
		humeClient := hume.NewClient(hume.Config{
			APIKey:             cfg.HumeAPIKey,
			BaseURL:            cfg.HumeBaseURL,
			EnableTranscript:   cfg.HumeEnableTranscript,
			ProsodyGranularity: cfg.HumeProsodyGranularity,
			MaxFileSize:        cfg.HumeMaxFileSize,
			Timeout:            time.Duration(cfg.HumeTimeoutSeconds) * time.Second,
		})

		var archive handlers.MediaArchive
		if cfg.HasS3() {
			s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
				Endpoint:        cfg.S3Endpoint,
				Region:          cfg.S3Region,
				AccessKeyID:     cfg.S3AccessKey,
				SecretAccessKey: cfg.S3SecretKey,
				Bucket:          cfg.S3Bucket,
				UsePathStyle:    true,
			})
			if err != nil {
				return fmt.Errorf("failed to create S3 client: %w", err)
			}
			if err := s3Client.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("failed to ensure S3 bucket: %w", err)
			}
			log.Printf("media archive bucket '%s' ready", cfg.S3Bucket)
			archive = s3Client
			archiveHandler = handlers.NewArchiveHandler(s3Client)
		}

		humeHandler = handlers.NewHumeHandler(humeClient, archive)
		log.Println("video analysis proxy enabled")
	}

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:       chatHandler,
		KnowledgeHandler:  knowledgeHandler,
		TranscribeHandler: transcribeHandler,
		HumeHandler:       humeHandler,
		ArchiveHandler:    archiveHandler,
		MaxUploadBytes:    cfg.HumeMaxFileSize,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
