package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/kevinaaaquil/bookshelf/middleware"
)

type RouterConfig struct {
	Schema *graphql.Schema
	Auth   *middleware.Resolver
	Logger *slog.Logger

	Production         bool
	StaticDir          string
	RateLimitPerMinute int
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(middleware.SecureHeaders(cfg.Production, cfg.Logger))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", Health)

	gql := &GraphQLHandler{Schema: cfg.Schema, Logger: cfg.Logger}
	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(cfg.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Use(middleware.Auth(cfg.Auth))
		r.Handle("/graphql", gql)
	})

	if cfg.Production && StaticAvailable(cfg.StaticDir) {
		r.Handle("/*", Static(cfg.StaticDir))
	} else {
		if cfg.Production {
			cfg.Logger.Warn("static client not found, serving API only", "dir", cfg.StaticDir)
		}
		r.Get("/", Welcome)
	}
	return r
}
