package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/bookshelf/config"
	"github.com/kevinaaaquil/bookshelf/graph"
	"github.com/kevinaaaquil/bookshelf/handlers"
	"github.com/kevinaaaquil/bookshelf/logging"
	"github.com/kevinaaaquil/bookshelf/middleware"
	"github.com/kevinaaaquil/bookshelf/service"
	"github.com/kevinaaaquil/bookshelf/store"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}
	logger, err := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatal("logging: ", err)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	var users service.UserStore
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; accounts are lost on restart")
		users = store.NewMemory()
	default:
		db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				logger.Error("mongodb disconnect", "error", err)
			}
		}()
		if err := db.EnsureIndexes(ctx); err != nil {
			return err
		}
		users = db
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:    cfg.JWTSecret,
		TTL:       cfg.JWTTTL,
		Algorithm: cfg.JWTAlgorithm,
	})
	if err != nil {
		return err
	}
	accounts, err := service.NewAccountService(users, tokens, bcrypt.DefaultCost, logger)
	if err != nil {
		return err
	}

	// A nil ObjectStore disables exports; never pass a nil *S3Service here.
	var objects service.ObjectStore
	if cfg.ExportEnabled() {
		s3Service, err := service.NewS3Service(ctx, service.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			return err
		}
		objects = s3Service
	} else {
		logger.Warn("AWS_S3_BUCKET not set; saved-list export is disabled")
	}

	schema, err := graph.NewSchema(graph.NewResolver(
		accounts,
		service.NewBookSearch(cfg.GoogleBooksURL),
		service.NewExporter(objects, users, cfg.ExportURLTTL),
		logger,
	))
	if err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Schema:             schema,
		Auth:               middleware.NewResolver(tokens, logger),
		Logger:             logger,
		Production:         cfg.IsProduction(),
		StaticDir:          cfg.StaticDir,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "graphql", "/graphql", "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
