// Package app wires the application together: configuration, database,
// provider client, tool registry, agent, and HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/asterhq/aster/db"
	"github.com/asterhq/aster/internal/api"
	"github.com/asterhq/aster/internal/cache"
	"github.com/asterhq/aster/internal/chat"
	"github.com/asterhq/aster/internal/config"
	"github.com/asterhq/aster/internal/faq"
	"github.com/asterhq/aster/internal/gemini"
	"github.com/asterhq/aster/internal/knowledge"
	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/observability"
	"github.com/asterhq/aster/internal/security"
	"github.com/asterhq/aster/internal/session"
	"github.com/asterhq/aster/internal/tool"
)

// App holds the wired application.
type App struct {
	Config *config.Config
	Logger log.Logger

	Pool          *pgxpool.Pool
	Agent         *chat.Agent
	Registry      *tool.Registry
	Conversations *session.Store
	Knowledge     *knowledge.Store
	Server        *api.Server

	otelShutdown func(context.Context) error
}

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(context.Background()); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	otelShutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Otel.Endpoint,
		Environment: cfg.Otel.Environment,
		ServiceName: cfg.Otel.ServiceName,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.otelShutdown = otelShutdown

	pool, err := providePool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:        cfg.APIKey,
		EmbedderModel: cfg.EmbedderModel,
		Temperature:   cfg.Temperature,
		HistoryWindow: cfg.HistoryWindow,
	}, logger)
	if err != nil {
		return nil, err
	}

	validator := security.NewURL()
	a.Knowledge = knowledge.NewStore(pool, client, logger)
	ingester := knowledge.NewIngester(a.Knowledge, validator, cfg.Search.UserAgent)
	a.Conversations = session.NewStore(pool, logger)
	a.Registry = provideRegistry(cfg, validator, a.Knowledge, ingester, logger)

	a.Agent = chat.NewAgent(client, a.Registry, cache.New(), chat.Config{
		MaxToolRounds: cfg.MaxToolRounds,
		Persona:       cfg.Persona,
		Model:         cfg.ModelName,
		CacheTTL:      time.Duration(cfg.CacheTTLSeconds) * time.Second,
	}, logger)

	server, err := api.NewServer(api.ServerConfig{
		Logger:        logger,
		Agent:         a.Agent,
		Conversations: a.Conversations,
		FAQ:           faq.New(cfg.FAQ),
		Knowledge:     a.Knowledge,
		Ingester:      ingester,
		Pool:          pool,
		CORSOrigins:   cfg.CORSOrigins,
		TrustProxy:    cfg.TrustProxy,
		RateBurst:     cfg.RateBurst,
	})
	if err != nil {
		return nil, err
	}
	a.Server = server

	return a, nil
}

// providePool runs migrations and opens a pgx pool with pgvector types
// registered on every connection.
func providePool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresDSN, logger); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// provideRegistry registers every built-in tool.
func provideRegistry(cfg *config.Config, validator *security.URL, store *knowledge.Store, ingester *knowledge.Ingester, logger log.Logger) *tool.Registry {
	searchCfg := tool.WebSearchConfig{
		Timeout:    cfg.Search.Timeout(),
		MaxResults: cfg.Search.MaxResults,
		UserAgent:  cfg.Search.UserAgent,
	}

	registry := tool.NewRegistry(logger)
	registry.Register(tool.NewCalculator())
	registry.Register(tool.NewWebSearch(validator, searchCfg, logger))
	registry.Register(tool.NewImageSearch(validator, searchCfg, logger))
	registry.Register(tool.NewImageGen(validator, tool.ImageGenConfig{
		BaseURL: cfg.ImageGen.BaseURL,
		Timeout: cfg.Search.Timeout(),
	}, logger))
	registry.Register(tool.NewKnowledgeSearch(store, cfg.Search.MaxResults))
	registry.Register(tool.NewKnowledgeIngest(ingester))
	return registry
}

// Close releases all resources in reverse initialization order.
func (a *App) Close(ctx context.Context) error {
	var firstErr error

	if a.Pool != nil {
		a.Pool.Close()
		a.Pool = nil
	}
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(shutdownCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutting down tracing: %w", err)
		}
		a.otelShutdown = nil
	}
	return firstErr
}
