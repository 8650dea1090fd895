// Package config assembles runtime settings from the environment.
package config

// #region imports
import (
	"os"
	"strconv"
	"time"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/evidence"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/llm"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/reconcile"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/review"
)

// #endregion

// #region config

// Config is the full engine configuration.
type Config struct {
	DBPath       string
	FeedbackPath string

	OllamaURL   string
	OllamaModel string
	EmbedModel  string
	OpenAIKey   string
	OpenAIModel string
	IndexURL    string // external similarity index; empty means embedded

	Evidence  evidence.Config
	LLM       llm.Config
	Reconcile reconcile.Config
	Review    review.Config
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() Config {
	cfg := Config{
		DBPath:       envOr("VEGGY_DB", "veggy.db"),
		FeedbackPath: envOr("VEGGY_FEEDBACK_LOG", "feedback.jsonl"),
		OllamaURL:    envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:  envOr("OLLAMA_MODEL", "llama3.2"),
		EmbedModel:   envOr("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4o-mini"),
		IndexURL:     os.Getenv("VEGGY_INDEX_URL"),
		Evidence:     evidence.DefaultConfig(),
		LLM:          llm.DefaultConfig(),
		Reconcile:    reconcile.DefaultConfig(),
		Review:       review.DefaultConfig(),
	}

	cfg.Reconcile.ConfidenceThreshold = envFloat("VEGGY_CONFIDENCE_THRESHOLD", cfg.Reconcile.ConfidenceThreshold)
	cfg.Review.HITLThreshold = envFloat("VEGGY_HITL_THRESHOLD", cfg.Review.HITLThreshold)
	cfg.LLM.BatchSize = envInt("VEGGY_LLM_BATCH_SIZE", cfg.LLM.BatchSize)
	cfg.LLM.Timeout = envDuration("VEGGY_LLM_TIMEOUT", cfg.LLM.Timeout)
	cfg.Evidence.TopK = envInt("VEGGY_TOP_K", cfg.Evidence.TopK)

	return cfg
}

// #endregion config

// #region env-helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// #endregion env-helpers
