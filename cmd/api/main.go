// Package main implements the place search API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lumenplaces/search/engine/index"
	"github.com/lumenplaces/search/engine/search"
	"github.com/lumenplaces/search/engine/semantic"
	"github.com/lumenplaces/search/pkg/events"
	"github.com/lumenplaces/search/pkg/metrics"
	"github.com/lumenplaces/search/pkg/mid"
	"github.com/lumenplaces/search/pkg/ollama"
	"github.com/lumenplaces/search/pkg/openai"
)

// Config holds all environment-based configuration.
type Config struct {
	Port string

	EmbedProvider string
	EmbedModel    string
	OpenAIKey     string
	OllamaURL     string

	VectorBackend     string
	PineconeKey       string
	PineconeIndex     string
	PineconeNamespace string
	QdrantURL         string
	Collection        string

	NATSURL        string
	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int
}

func loadConfig() Config {
	return Config{
		Port:              envOr("PORT", "5000"),
		EmbedProvider:     envOr("EMBED_PROVIDER", "openai"),
		EmbedModel:        envOr("EMBED_MODEL", openai.DefaultModel),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OllamaURL:         envOr("OLLAMA_URL", "http://localhost:11434"),
		VectorBackend:     envOr("VECTOR_BACKEND", "pinecone"),
		PineconeKey:       os.Getenv("PINECONE_API_KEY"),
		PineconeIndex:     envOr("PINECONE_INDEX", os.Getenv("PINECONE_INDEX_NAME")),
		PineconeNamespace: os.Getenv("PINECONE_NAMESPACE"),
		QdrantURL:         envOr("QDRANT_URL", "localhost:6334"),
		Collection:        envOr("QDRANT_COLLECTION", "places"),
		NATSURL:           os.Getenv("NATS_URL"),
		CORSOrigin:        envOr("CORS_ORIGIN", "*"),
		RateLimitRPS:      envFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:    int(envFloat("RATE_LIMIT_BURST", 20)),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	var f float64
	if _, err := fmt.Sscan(os.Getenv(key), &f); err != nil {
		return fallback
	}
	return f
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	idx, closeIndex, err := newIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex.Close()

	publisher, err := events.Connect(cfg.NATSURL, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	reg := metrics.New()
	api := &API{
		search:    search.New(embedder, idx, logger),
		publisher: publisher,
		metrics:   reg,
		logger:    logger,
	}

	handler := mid.Chain(api.Routes(),
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("place-search-api"),
		mid.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		mid.Metrics(reg),
	)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting",
			"port", cfg.Port,
			"embed_provider", cfg.EmbedProvider,
			"vector_backend", cfg.VectorBackend,
			"events", publisher.Enabled(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newEmbedder(cfg Config) (search.Embedder, error) {
	switch cfg.EmbedProvider {
	case "openai":
		c, err := openai.NewEmbedClient(cfg.OpenAIKey, cfg.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("embedder: %w (set OPENAI_API_KEY)", err)
		}
		return c, nil
	case "ollama":
		return ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel), nil
	default:
		return nil, fmt.Errorf("embedder: unknown EMBED_PROVIDER %q", cfg.EmbedProvider)
	}
}

func newIndex(ctx context.Context, cfg Config) (search.Index, io.Closer, error) {
	switch cfg.VectorBackend {
	case "pinecone":
		p, err := index.NewPinecone(ctx, cfg.PineconeKey, cfg.PineconeIndex, cfg.PineconeNamespace)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case "qdrant":
		vs, err := semantic.New(cfg.QdrantURL, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		return vs, vs, nil
	default:
		return nil, nil, fmt.Errorf("index: unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}
