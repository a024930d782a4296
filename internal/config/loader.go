package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Load reads configuration from environment variables, optionally overlaid
// by a .env file via godotenv.Overload, then applies defaults and merges in
// an optional YAML static-ranking-defaults file.
func Load() (Config, error) {
	// Overload so a local .env deterministically controls behavior in
	// development: its values replace any already-exported variable of the
	// same name.
	_ = godotenv.Overload()

	cfg := Config{}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.KafkaBrokerURL = firstNonEmpty(
		strings.TrimSpace(os.Getenv("KAFKA_BROKER_URL")),
		strings.TrimSpace(os.Getenv("CELERY_BROKER_URL")),
	)
	cfg.VectorBackend = strings.TrimSpace(os.Getenv("VECTOR_BACKEND"))
	cfg.QdrantURL = strings.TrimSpace(os.Getenv("QDRANT_URL"))
	cfg.QdrantCollection = strings.TrimSpace(os.Getenv("QDRANT_COLLECTION"))

	cfg.LLMBaseURL = strings.TrimSpace(os.Getenv("LLM_BASE_URL"))
	cfg.LLMModel = strings.TrimSpace(os.Getenv("LLM_MODEL"))
	cfg.LLMProvider = strings.TrimSpace(os.Getenv("LLM_PROVIDER"))
	cfg.AnthropicAPIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.EmbeddingModel = strings.TrimSpace(os.Getenv("EMBEDDING_MODEL"))
	cfg.EmbeddingDimension = intFromEnv("EMBEDDING_DIMENSION", 384)

	cfg.ChunkSize = intFromEnv("CHUNK_SIZE", 256)
	cfg.ChunkOverlap = intFromEnv("CHUNK_OVERLAP", 32)
	cfg.BM25K1 = floatFromEnv("BM25_K1", 1.2)
	cfg.BM25B = floatFromEnv("BM25_B", 0.75)
	cfg.RRFK = intFromEnv("RRF_K", 60)
	cfg.MaxSearchResults = intFromEnv("MAX_SEARCH_RESULTS", 100)

	cfg.CrawlDelaySeconds = intFromEnv("CRAWL_DELAY_SECONDS", 1)
	cfg.MaxCrawlDepth = intFromEnv("MAX_CRAWL_DEPTH", 3)
	cfg.UserAgent = firstNonEmpty(strings.TrimSpace(os.Getenv("USER_AGENT")), "hyperfind-crawler/1.0")

	cfg.IndexWorkerCount = intFromEnv("INDEX_WORKER_COUNT", 4)
	cfg.CrawlWorkerCount = intFromEnv("CRAWL_WORKER_COUNT", 2)
	cfg.DBPoolMaxConns = int32(intFromEnv("DB_POOL_MAX_CONNS", 10))

	cfg.LogLevel = firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info")
	cfg.LogPath = strings.TrimSpace(os.Getenv("LOG_PATH"))

	rankingPath := firstNonEmpty(strings.TrimSpace(os.Getenv("RANKING_CONFIG_PATH")), "config/ranking.yaml")
	cfg.Ranking = defaultRankingDefaults()
	if b, err := os.ReadFile(rankingPath); err == nil {
		var overrides RankingDefaults
		if err := yaml.Unmarshal(b, &overrides); err == nil {
			mergeRankingDefaults(&cfg.Ranking, overrides)
		}
	}

	return cfg, nil
}

func mergeRankingDefaults(base *RankingDefaults, overrides RankingDefaults) {
	if overrides.HybridAlpha != 0 {
		base.HybridAlpha = overrides.HybridAlpha
	}
	base.Diversify = overrides.Diversify
	if overrides.SnippetWindow != 0 {
		base.SnippetWindow = overrides.SnippetWindow
	}
	if len(overrides.StopwordsExtra) > 0 {
		base.StopwordsExtra = overrides.StopwordsExtra
	}
	if len(overrides.CrawlerUserAgents) > 0 {
		base.CrawlerUserAgents = overrides.CrawlerUserAgents
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
