package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/gameplan-importer/internal/api"
	"github.com/ignite/gameplan-importer/internal/config"
	"github.com/ignite/gameplan-importer/internal/importer"
	"github.com/ignite/gameplan-importer/internal/pkg/distlock"
	"github.com/ignite/gameplan-importer/internal/pkg/logger"
	"github.com/ignite/gameplan-importer/internal/repository/postgres"
	"github.com/ignite/gameplan-importer/internal/service/imports"
	"github.com/ignite/gameplan-importer/internal/session"
	"github.com/ignite/gameplan-importer/internal/storage"
	"github.com/ignite/gameplan-importer/internal/validation"
	"github.com/ignite/gameplan-importer/internal/worker"
)

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config check FAILED: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactSecrets(cfg.Log.RedactSecrets)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reference store
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Database pre-flight FAILED (%s): %v", extractHost(cfg.Database.URL), err)
	}
	logger.Info("reference database connected", "host", extractHost(cfg.Database.URL))

	// Redis backs sessions and import locks when configured.
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, locks fall back to postgres", "error", err)
		}
	}

	// AWS clients are only built when something needs them.
	var awsCfg aws.Config
	if cfg.Session.Backend == "dynamodb" || cfg.Archive.Enabled {
		awsCfg, err = storage.LoadAWSConfig(ctx, cfg.AWS.Region, cfg.AWS.GetProfile(), cfg.AWS.Endpoint)
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
	}

	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		if rdb == nil {
			log.Fatal("session backend redis requires REDIS_URL")
		}
		sessions = session.NewRedisStore(rdb, cfg.Session.TTL(), cfg.Session.TerminalTTL())
	case "dynamodb":
		dynamo := storage.NewDynamoClient(awsCfg, cfg.AWS.Endpoint)
		sessions = session.NewDynamoStore(dynamo, cfg.Session.DynamoDBTable, cfg.Session.TTL(), cfg.Session.TerminalTTL())
	default:
		logger.Warn("using in-memory session store; sessions are lost on restart")
		sessions = session.NewMemoryStore()
	}
	logger.Info("session store ready", "backend", cfg.Session.Backend)

	var (
		archiver storage.Archiver
		health   *api.HealthChecker
	)
	if cfg.Archive.Enabled {
		s3Client := storage.NewS3Client(awsCfg, cfg.AWS.Endpoint)
		archiver = storage.NewS3Archive(s3Client, cfg.Archive.S3Bucket, cfg.Archive.Prefix)
		health = api.NewHealthChecker(db, rdb, s3Client, cfg.Archive.S3Bucket)
		logger.Info("session archive enabled", "bucket", cfg.Archive.S3Bucket)
	} else {
		health = api.NewHealthChecker(db, rdb, nil, "")
	}

	lockTTL := cfg.Import.LockTTL()
	runner := worker.NewImportRunner(func(key string) distlock.DistLock {
		return distlock.NewLock(rdb, db, key, lockTTL)
	}, lockTTL)

	svc := imports.NewService(sessions, postgres.NewOpener(db), runner, imports.Options{
		Pipeline: validation.NewPipeline(cfg.Validation.ChunkSize, cfg.Validation.CrossrefTimeout()),
		Engine:   importer.NewEngine(cfg.Import.ProgressEvery),
		Archiver: archiver,
	})

	server := api.NewServer(cfg.Server, api.NewHandlers(svc, cfg.Server.MaxUploadMB), health)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("imports cancelled at shutdown", "error", err)
	}
	logger.Info("server stopped")
}
