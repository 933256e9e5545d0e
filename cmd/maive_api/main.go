// Package main MAIVE API
// @title MAIVE API
// @version 1.0
// @description AI validation engine measuring benefit determination and document extraction accuracy against curated test cases
// @BasePath /
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/benefitsnav/maive/internal/adapter"
	"github.com/benefitsnav/maive/internal/api/router"
	apiserver "github.com/benefitsnav/maive/internal/api/server"
	"github.com/benefitsnav/maive/internal/catalog"
	"github.com/benefitsnav/maive/internal/judge"
	"github.com/benefitsnav/maive/internal/orchestrator"
	"github.com/benefitsnav/maive/internal/storage/factory"
	"github.com/benefitsnav/maive/internal/trend"
	pkgserver "github.com/benefitsnav/maive/pkg/server"
	"github.com/labstack/echo/v4"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	sCfg, err := apiserver.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// The store is built after the server so it can share the signal-bound
	// context; health pings are bound once it exists.
	var storePing func(ctx context.Context) error
	hc := pkgserver.NewPingHealthChecker(func(ctx context.Context) error {
		if storePing == nil {
			return nil
		}
		return storePing(ctx)
	})

	s := apiserver.New(sCfg, hc).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupOpenApi("/swagger/*")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "MAIVE API is running")
	})

	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
		return
	}

	built, err := factory.NewStore(s.Context(), &cfg.StorageConfig)
	if err != nil {
		slog.Error("Failed to create store", "error", err)
		os.Exit(1)
		return
	}
	defer built.Close()
	storePing = built.Ping

	cat := catalog.New(built.Store)
	if cfg.SeedFile != "" {
		cases, err := catalog.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			slog.Error("Failed to load seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
			return
		}
		if err := catalog.Seed(s.Context(), built.Store, cases); err != nil {
			slog.Error("Failed to seed test cases", "error", err)
			os.Exit(1)
			return
		}
		slog.Info("Seeded test case catalog", "path", cfg.SeedFile, "cases", len(cases))
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		slog.Error("Failed to build adapter registry", "error", err)
		os.Exit(1)
		return
	}

	j, err := buildJudge(cfg)
	if err != nil {
		slog.Error("Failed to build judge", "error", err)
		os.Exit(1)
		return
	}
	slog.Info("Judge configured", "judge", j.Name())

	agg := trend.NewAggregator(built.Store, built.Store)
	orch := orchestrator.New(cat, registry, j, built.Store, agg, orchestrator.Config{
		MaxParallel: cfg.MaxParallel,
	})

	router.NewValidationRouter(s.Echo, orch, cat, built.Store, agg).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, cleaning up resources...")
	}()

	if err := s.Start(); err != nil {
		s.Echo.Logger.Error("Failed to start server: ", err)
		os.Exit(1)
	}
}

func buildRegistry(cfg *MaiveConfig) (*adapter.Registry, error) {
	registry, err := adapter.NewRegistry()
	if err != nil {
		return nil, err
	}

	if cfg.PolicyEngineURL != "" {
		pe, err := adapter.NewPolicyEngineAdapter(cfg.PolicyEngineURL, cfg.SubsystemTimeout)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(pe); err != nil {
			return nil, err
		}
	}
	if cfg.GeminiExtractionURL != "" {
		ge, err := adapter.NewGeminiExtractionAdapter(cfg.GeminiExtractionURL, cfg.SubsystemTimeout)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(ge); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildJudge(cfg *MaiveConfig) (judge.Judge, error) {
	switch cfg.JudgeProvider {
	case JudgeKeyword:
		return judge.NewKeywordJudge(), nil
	default:
		var opts []judge.OpenAIOption
		if cfg.JudgeModel != "" {
			opts = append(opts, judge.WithModel(cfg.JudgeModel))
		}
		return judge.NewOpenAIJudge(cfg.OpenAIKey, opts...)
	}
}
