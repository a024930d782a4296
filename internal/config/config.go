// Package config loads hyperfind's runtime configuration from the
// environment (optionally via a .env file) with a YAML secondary layer for
// static crawler/ranking defaults that are awkward to express as env vars.
package config

// Config is the fully resolved runtime configuration for hyperfind.
type Config struct {
	// Persistence
	DatabaseURL string
	RedisURL    string
	// KafkaBrokerURL is the background task queue broker address,
	// the spiritual successor of celeryBrokerUrl in the original design.
	KafkaBrokerURL string
	VectorBackend  string // "postgres" (default) or "qdrant"
	QdrantURL      string
	QdrantCollection string

	// LLM / embeddings
	LLMBaseURL          string
	LLMModel            string
	LLMProvider         string // "openai" | "anthropic" | ""
	AnthropicAPIKey     string
	OpenAIAPIKey        string
	EmbeddingModel      string
	EmbeddingDimension  int

	// Index / ranking tunables
	ChunkSize        int
	ChunkOverlap     int
	BM25K1           float64
	BM25B            float64
	RRFK             int
	MaxSearchResults int

	// Crawling
	CrawlDelaySeconds int
	MaxCrawlDepth     int
	UserAgent         string

	// Worker / pool sizing
	IndexWorkerCount int
	CrawlWorkerCount int
	DBPoolMaxConns   int32

	// Ambient
	LogLevel string
	LogPath  string

	// Ranking holds the YAML-sourced static defaults that are cumbersome to
	// carry as individual env vars (crawler allow-lists, ranking weights).
	Ranking RankingDefaults
}

// RankingDefaults is loaded from an optional YAML file (default path
// "config/ranking.yaml") and supplements env-derived tunables with static,
// rarely-changed defaults.
type RankingDefaults struct {
	HybridAlpha      float64           `yaml:"hybridAlpha"`      // BM25 weight in [0,1]; semantic gets 1-alpha
	Diversify        bool              `yaml:"diversify"`
	SnippetWindow    int               `yaml:"snippetWindow"`
	StopwordsExtra   []string          `yaml:"stopwordsExtra"`
	CrawlerUserAgents map[string]string `yaml:"crawlerUserAgents"`
}

func defaultRankingDefaults() RankingDefaults {
	return RankingDefaults{
		HybridAlpha:   0.5,
		Diversify:     true,
		SnippetWindow: 160,
	}
}
