// Package wiring assembles the concrete collaborator graph (storage
// backends, indexers, rankers, the RAG facade/controller, crawl sources, and
// the result cache) from a resolved config.Config, so cmd/hyperfind's
// cobra commands stay thin dispatch shims over one shared construction path.
package wiring

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"hyperfind/internal/autocomplete"
	"hyperfind/internal/bm25"
	"hyperfind/internal/cache"
	"hyperfind/internal/config"
	"hyperfind/internal/crawl"
	"hyperfind/internal/crawler"
	"hyperfind/internal/crawler/custom"
	"hyperfind/internal/crawler/hackernews"
	"hyperfind/internal/crawler/reddit"
	"hyperfind/internal/crawler/wikipedia"
	"hyperfind/internal/embedder"
	"hyperfind/internal/hybrid"
	"hyperfind/internal/index"
	"hyperfind/internal/indexworker"
	"hyperfind/internal/llm"
	"hyperfind/internal/obs"
	"hyperfind/internal/rag"
	"hyperfind/internal/semantic"
	"hyperfind/internal/store"
	"hyperfind/internal/vectorindex"
)

// crawlFetchTimeout bounds every concrete crawler's outbound HTTP client.
const crawlFetchTimeout = 25 * time.Second

// App bundles every collaborator the HTTP server and background worker need,
// built once at process startup from config.Config.
type App struct {
	Config config.Config

	Backends store.Backends

	BM25Scorer   *bm25.Scorer
	Semantic     *semantic.Searcher
	Hybrid       *hybrid.Ranker
	Facade       *rag.Facade
	Controller   *rag.Controller
	Autocomplete *autocomplete.Manager
	Orchestrator *crawl.Orchestrator
	Worker       *indexworker.Worker
	Cache        cache.ResultCache
	Crawlers     map[string]crawler.Crawler

	redisClient *redis.Client
}

// Build resolves every concrete backend and collaborator from cfg. The
// returned App owns a Redis client (if cfg.RedisURL is set) and the
// underlying storage pool; call Close when done.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	backends, err := store.NewManager(ctx, store.BackendOptions{
		DatabaseURL:      cfg.DatabaseURL,
		VectorBackend:    cfg.VectorBackend,
		QdrantURL:        cfg.QdrantURL,
		QdrantCollection: cfg.QdrantCollection,
		Dimension:        cfg.EmbeddingDimension,
		VectorMetric:     "cosine",
	})
	if err != nil {
		return nil, err
	}

	emb := buildEmbedder(cfg)
	metrics := obs.NewOtelMetrics()

	vecIndexer := vectorindex.NewIndexer(emb, backends.Manager.Vector, cfg.ChunkSize, cfg.ChunkOverlap)
	termBuilder := index.NewBuilder(backends.Postings, indexworker.NewDocumentLoader(backends.Documents))
	worker := indexworker.NewWorker(termBuilder, vecIndexer, backends.Documents)
	worker.Metrics = metrics
	worker.FullText = backends.Manager.Search

	bm25Scorer := bm25.NewScorer(backends.Postings, cfg.BM25K1, cfg.BM25B)
	bm25Scorer.Metrics = metrics
	semanticSearcher := semantic.NewSearcher(emb, backends.Manager.Vector)
	semanticSearcher.Metrics = metrics
	hybridRanker := hybrid.NewRanker(bm25Scorer, semanticSearcher, cfg.RRFK)

	docLookup := rag.NewStoreDocumentLookup(backends.Documents)
	facade := rag.NewFacade(bm25Scorer, semanticSearcher, docLookup)

	provider, err := llm.Build(cfg, http.DefaultClient)
	if err != nil {
		return nil, err
	}
	controller := rag.NewController(facade, provider, cfg.LLMModel)

	autocompleteMgr := autocomplete.NewManager(backends.Terms)

	orchestrator := crawl.NewOrchestrator(backends.Jobs, backends.Documents)

	var redisClient *redis.Client
	var resultCache cache.ResultCache = cache.NewMemory(0)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = redis.NewClient(opts)
		orchestrator.Dedupe = crawl.NewRedisURLDedupe(redisClient, 0)
		resultCache = cache.NewRedis(redisClient, 0)
	}

	return &App{
		Config:       cfg,
		Backends:     backends,
		BM25Scorer:   bm25Scorer,
		Semantic:     semanticSearcher,
		Hybrid:       hybridRanker,
		Facade:       facade,
		Controller:   controller,
		Autocomplete: autocompleteMgr,
		Orchestrator: orchestrator,
		Worker:       worker,
		Cache:        resultCache,
		Crawlers:     buildCrawlers(cfg),
		redisClient:  redisClient,
	}, nil
}

// Close releases the storage pool and Redis client, if any.
func (a *App) Close() {
	a.Backends.Manager.Close()
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
}

func buildEmbedder(cfg config.Config) embedder.Embedder {
	if cfg.OpenAIAPIKey == "" {
		return embedder.NewDeterministic(cfg.EmbeddingDimension, 1)
	}
	return embedder.NewOpenAI(cfg.OpenAIAPIKey, cfg.LLMBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDimension)
}

func buildCrawlers(cfg config.Config) map[string]crawler.Crawler {
	return map[string]crawler.Crawler{
		"wikipedia":  wikipedia.New(crawlFetchTimeout),
		"reddit":     reddit.New(crawlFetchTimeout),
		"hackernews": hackernews.New(crawlFetchTimeout),
		"custom":     custom.New(crawlFetchTimeout, cfg.UserAgent, cfg.MaxCrawlDepth),
	}
}
