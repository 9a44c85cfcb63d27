// Command loader embeds a JSON file of places and upserts them into a Qdrant
// collection that the API can serve with VECTOR_BACKEND=qdrant.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lumenplaces/search/engine/search"
	"github.com/lumenplaces/search/engine/semantic"
	"github.com/lumenplaces/search/pkg/ollama"
	"github.com/lumenplaces/search/pkg/openai"
)

// Place is one input record.
type Place struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags"`
	Address  string   `json:"address"`
	ImageURL string   `json:"image_url"`
	URL      string   `json:"url"`
}

type placeStore interface {
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, records []semantic.PlaceRecord) error
}

func main() {
	_ = godotenv.Load()

	var (
		file       = flag.String("file", "places.json", "JSON array of places")
		provider   = flag.String("embed", envOr("EMBED_PROVIDER", "openai"), "embedding provider: openai or ollama")
		model      = flag.String("model", envOr("EMBED_MODEL", openai.DefaultModel), "embedding model")
		ollamaURL  = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
		qdrantAddr = flag.String("qdrant", envOr("QDRANT_URL", "localhost:6334"), "Qdrant gRPC address")
		collection = flag.String("collection", envOr("QDRANT_COLLECTION", "places"), "Qdrant collection name")
		batch      = flag.Int("batch", 64, "points per upsert")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f, err := os.Open(*file)
	if err != nil {
		log.Error("open input", "err", err)
		os.Exit(1)
	}
	places, err := readPlaces(f)
	f.Close()
	if err != nil {
		log.Error("read input", "err", err)
		os.Exit(1)
	}

	var embedder search.Embedder
	switch *provider {
	case "openai":
		embedder, err = openai.NewEmbedClient(os.Getenv("OPENAI_API_KEY"), *model)
	case "ollama":
		embedder = ollama.NewEmbedClient(*ollamaURL, *model)
	default:
		err = fmt.Errorf("unknown embed provider %q", *provider)
	}
	if err != nil {
		log.Error("embedder", "err", err)
		os.Exit(1)
	}

	store, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		log.Error("qdrant", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	n, err := loadPlaces(ctx, embedder, store, places, *batch)
	if err != nil {
		log.Error("load failed", "loaded", n, "err", err)
		os.Exit(1)
	}
	log.Info("load complete", "places", n, "collection", *collection)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readPlaces(r io.Reader) ([]Place, error) {
	var places []Place
	if err := json.NewDecoder(r).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}
	return places, nil
}

// pointID returns id if it is already a UUID, otherwise a stable UUID derived from it.
func pointID(p Place) string {
	if _, err := uuid.Parse(p.ID); err == nil {
		return p.ID
	}
	key := p.ID
	if key == "" {
		key = p.Title + "\x00" + p.URL
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// embedText is the text a place is indexed under.
func embedText(p Place) string {
	return strings.TrimSpace(p.Title + "\n" + p.Text)
}

func loadPlaces(ctx context.Context, embedder search.Embedder, store placeStore, places []Place, batch int) (int, error) {
	if batch < 1 {
		batch = 1
	}
	loaded := 0
	pending := make([]semantic.PlaceRecord, 0, batch)
	ensured := false

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := store.Upsert(ctx, pending); err != nil {
			return err
		}
		loaded += len(pending)
		pending = pending[:0]
		return nil
	}

	for i, p := range places {
		text := embedText(p)
		if text == "" {
			continue
		}
		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			return loaded, fmt.Errorf("embed place %d: %w", i, err)
		}
		if !ensured {
			if err := store.EnsureCollection(ctx, len(vec)); err != nil {
				return loaded, err
			}
			ensured = true
		}
		pending = append(pending, semantic.PlaceRecord{
			ID:        pointID(p),
			Embedding: vec,
			Metadata: search.Metadata{
				Title:    p.Title,
				Text:     p.Text,
				Tags:     p.Tags,
				Address:  p.Address,
				ImageURL: p.ImageURL,
				URL:      p.URL,
			},
		})
		if len(pending) == batch {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
	}
	err := flush()
	return loaded, err
}
