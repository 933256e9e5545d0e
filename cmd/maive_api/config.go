package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/benefitsnav/maive/internal/adapter"
	"github.com/benefitsnav/maive/internal/orchestrator"
	"github.com/benefitsnav/maive/internal/storage/factory"
	"github.com/benefitsnav/maive/pkg/config/env"
)

type AppConfig struct {
	ENV string
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type JudgeProvider string

const (
	JudgeOpenAI  JudgeProvider = "openai"
	JudgeKeyword JudgeProvider = "keyword"
)

type MaiveConfig struct {
	StorageConfig factory.StorageConfig

	PolicyEngineURL     string
	GeminiExtractionURL string
	SubsystemTimeout    time.Duration

	JudgeProvider JudgeProvider
	OpenAIKey     string
	JudgeModel    string

	MaxParallel int
	SeedFile    string
}

func (as *AppConfig) Load() (*MaiveConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/maive_api/.env")
	if err != nil {
		slog.Info("Failed to .env load environment variables, continuing with existing environment variables", "error", err)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage configuration from environment", "error", err)
		return nil, err
	}

	cfg := &MaiveConfig{
		StorageConfig:       *storageCfg,
		PolicyEngineURL:     os.Getenv("POLICY_ENGINE_URL"),
		GeminiExtractionURL: os.Getenv("GEMINI_EXTRACTION_URL"),
		SubsystemTimeout:    adapter.DefaultTimeout,
		JudgeProvider:       JudgeProvider(os.Getenv("JUDGE_PROVIDER")),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		JudgeModel:          os.Getenv("JUDGE_MODEL"),
		MaxParallel:         orchestrator.DefaultMaxParallel,
		SeedFile:            os.Getenv("MAIVE_SEED_FILE"),
	}

	if cfg.PolicyEngineURL == "" && cfg.GeminiExtractionURL == "" {
		return nil, fmt.Errorf("at least one of POLICY_ENGINE_URL or GEMINI_EXTRACTION_URL must be set")
	}

	if raw := os.Getenv("SUBSYSTEM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SUBSYSTEM_TIMEOUT %q", raw)
		}
		cfg.SubsystemTimeout = d
	}

	if cfg.JudgeProvider == "" {
		cfg.JudgeProvider = JudgeOpenAI
	}
	switch cfg.JudgeProvider {
	case JudgeOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when JUDGE_PROVIDER=openai")
		}
	case JudgeKeyword:
	default:
		return nil, fmt.Errorf("invalid JUDGE_PROVIDER %q, expected one of [openai, keyword]", cfg.JudgeProvider)
	}

	if raw := os.Getenv("MAX_PARALLEL"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid MAX_PARALLEL %q", raw)
		}
		cfg.MaxParallel = n
	}

	return cfg, nil
}
