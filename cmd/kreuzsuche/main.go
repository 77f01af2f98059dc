// Package main is the kreuzsuche CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kreuzlingo/kreuzsuche/internal/cli"
	"github.com/kreuzlingo/kreuzsuche/internal/config"
	"github.com/kreuzlingo/kreuzsuche/internal/corpus"
	"github.com/kreuzlingo/kreuzsuche/internal/embedding"
	"github.com/kreuzlingo/kreuzsuche/internal/models"
	"github.com/kreuzlingo/kreuzsuche/internal/pipeline"
	"github.com/kreuzlingo/kreuzsuche/internal/search"
	"github.com/kreuzlingo/kreuzsuche/internal/server"
	"github.com/kreuzlingo/kreuzsuche/internal/storage"
	"github.com/kreuzlingo/kreuzsuche/internal/vector"
	"github.com/kreuzlingo/kreuzsuche/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kreuzsuche/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "kreuzsuche serve" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "fetch":
		runFetch()
	case "embed":
		runEmbed()
	case "build":
		runBuild()
	case "serve":
		runServe()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kreuzsuche version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustSetup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	return cfg, logger
}

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, componentNeeds{})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	info, err := pipeline.LoadCorpus(
		context.Background(),
		corpus.NewFetcher(logger),
		components.Storage,
		cfg.Corpus.SourceURL,
		cfg.Corpus.CachePath,
		cfg.Corpus.Size,
		logger,
	)
	if err != nil {
		logger.Fatal("Corpus load failed", zap.Error(err))
	}
	fmt.Printf("Loaded %d sentence pair(s) (%d dropped) from %s\n", info.Loaded, info.Dropped, info.SourceURL)
	fmt.Println("Run 'kreuzsuche embed' next to compute sentence embeddings.")
}

func runEmbed() {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, componentNeeds{Embedder: true})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	n, err := pipeline.EmbedCorpus(context.Background(), components.Storage, components.Embedder, cfg.Embedding.BatchSize, logger)
	if err != nil {
		logger.Fatal("Embedding failed", zap.Error(err))
	}
	fmt.Printf("Embedded %d sentence(s) at %d dimensions\n", n, components.Embedder.Dimensions())
	fmt.Println("Run 'kreuzsuche build' next to build the vector index.")
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, componentNeeds{Index: true})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	n, err := pipeline.BuildIndex(context.Background(), components.Storage, components.Index, cfg.Storage.VectorIndexPath, logger)
	if err != nil {
		logger.Fatal("Index build failed", zap.Error(err))
	}
	fmt.Printf("Built %s index with %d vector(s), saved to %s\n", components.Index.Type(), n, cfg.Storage.VectorIndexPath)
	fmt.Println("Run 'kreuzsuche serve' to start answering queries.")
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, componentNeeds{Embedder: true, Index: true, LoadIndex: true})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := verifyServeInvariants(context.Background(), components); err != nil {
		logger.Fatal("Startup check failed; run fetch, embed and build first", zap.Error(err))
	}

	srv := server.NewServer(components.Engine, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// verifyServeInvariants refuses to serve over a missing or stale artifact
// chain: the index must be non-empty, cover exactly the stored corpus and
// match the embedder's dimensionality.
func verifyServeInvariants(ctx context.Context, components *Components) error {
	pairCount, err := components.Storage.CountPairs(ctx)
	if err != nil {
		return fmt.Errorf("count pairs: %w", err)
	}
	if pairCount == 0 {
		return fmt.Errorf("no corpus loaded")
	}
	if components.Index.Size() == 0 {
		return fmt.Errorf("vector index is empty")
	}
	if int64(components.Index.Size()) != pairCount {
		return fmt.Errorf("index size %d does not match corpus size %d; rebuild the index",
			components.Index.Size(), pairCount)
	}
	if components.Embedder.Dimensions() != components.Index.Dimensions() {
		return fmt.Errorf("embedder dimensions %d do not match index dimensions %d",
			components.Embedder.Dimensions(), components.Index.Dimensions())
	}
	return nil
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "kreuzsuche search where
// is the station -top-k 3" would otherwise leave -top-k unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use local artifacts directly)")
	topK := fs.Int("top-k", 0, "number of results (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	searchQuery := &models.SearchQuery{Query: queryStr, TopK: *topK}

	if *serverURL != "" {
		// Use the HTTP API when a server is running (avoids a second model load).
		response, err := searchViaHTTP(*serverURL, searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct artifact access (when the server is not running).
	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, componentNeeds{Embedder: true, Index: true, LoadIndex: true})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()
	if err := verifyServeInvariants(context.Background(), components); err != nil {
		logger.Fatal("Artifact check failed; run fetch, embed and build first", zap.Error(err))
	}

	response, err := components.Engine.Search(context.Background(), searchQuery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kreuzsuche search [flags] <english query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kreuzsuche search where is the train station
  kreuzsuche search "where is the train station"   # same as above
  kreuzsuche search --top-k 10 good morning
  kreuzsuche search --output json i am hungry       # structured JSON for other apps
  kreuzsuche search --server "" good evening        # no server, use local artifacts
`)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

// statusCorpusResponse holds corpus provenance returned by status.
type statusCorpusResponse struct {
	RunID     string `json:"run_id,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Loaded    int    `json:"loaded,omitempty"`
	Dropped   int    `json:"dropped,omitempty"`
	FetchedAt string `json:"fetched_at,omitempty"`
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	IndexType           string `json:"index_type,omitempty"`
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`
	DefaultTopK         int    `json:"default_top_k,omitempty"`
	MaxTopK             int    `json:"max_top_k,omitempty"`
	DatabasePath        string `json:"database_path,omitempty"`
	VectorIndexPath     string `json:"vector_index_path,omitempty"`
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	SentencePairs int64                 `json:"sentence_pairs"`
	Embeddings    int64                 `json:"embeddings"`
	IndexSize     int                   `json:"index_size"`
	Corpus        *statusCorpusResponse `json:"corpus,omitempty"`
	Config        *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use local artifacts)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, logger := mustSetup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, componentNeeds{Index: true, LoadIndex: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		ctx := context.Background()
		pairCount, err := components.Storage.CountPairs(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count pairs failed: %v\n", err)
			os.Exit(1)
		}
		embeddingCount, err := components.Storage.CountEmbeddings(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count embeddings failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			SentencePairs: pairCount,
			Embeddings:    embeddingCount,
			IndexSize:     components.Index.Size(),
			Config: &statusConfigResponse{
				IndexType:           components.Index.Type(),
				EmbeddingDimensions: cfg.Embedding.Dimensions,
				DefaultTopK:         cfg.Search.DefaultTopK,
				MaxTopK:             cfg.Search.MaxTopK,
				DatabasePath:        cfg.Storage.DatabasePath,
				VectorIndexPath:     cfg.Storage.VectorIndexPath,
			},
		}
		if info, infoErr := components.Storage.CorpusInfo(ctx); infoErr == nil && info != nil {
			status.Corpus = &statusCorpusResponse{
				RunID:     info.RunID,
				SourceURL: info.SourceURL,
				Requested: info.Requested,
				Loaded:    info.Loaded,
				Dropped:   info.Dropped,
				FetchedAt: info.FetchedAt.Format(time.RFC3339),
			}
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("sentence_pairs:  %d\n", status.SentencePairs)
		fmt.Printf("embeddings:      %d\n", status.Embeddings)
		fmt.Printf("index_size:      %d\n", status.IndexSize)
		if status.Corpus != nil {
			fmt.Println()
			fmt.Println("# corpus")
			fmt.Printf("run_id:          %s\n", status.Corpus.RunID)
			fmt.Printf("source_url:      %s\n", status.Corpus.SourceURL)
			fmt.Printf("loaded:          %d (of %d requested, %d dropped)\n",
				status.Corpus.Loaded, status.Corpus.Requested, status.Corpus.Dropped)
			if status.Corpus.FetchedAt != "" {
				fmt.Printf("fetched_at:      %s\n", status.Corpus.FetchedAt)
			}
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			fmt.Printf("index_type:      %s\n", status.Config.IndexType)
			fmt.Printf("embedding_dims:  %d\n", status.Config.EmbeddingDimensions)
			fmt.Printf("default_top_k:   %d\n", status.Config.DefaultTopK)
			fmt.Printf("max_top_k:       %d\n", status.Config.MaxTopK)
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:   %s\n", status.Config.DatabasePath)
			}
			if status.Config.VectorIndexPath != "" {
				fmt.Printf("index_path:      %s\n", status.Config.VectorIndexPath)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// componentNeeds selects which heavyweight components a command requires.
// fetch only needs storage; embed needs the model; serve needs everything
// including the persisted index.
type componentNeeds struct {
	Embedder  bool
	Index     bool
	LoadIndex bool
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Store
	Embedder embedding.Embedder
	Index    vector.Index
	Engine   *search.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, needs componentNeeds) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	components := &Components{Storage: store}

	if needs.Embedder {
		if cfg.Embedding.UseMock {
			logger.Warn("using mock embedder; results are deterministic but not semantic")
			components.Embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
		} else {
			// A missing model is fatal. Silently degrading to the mock would
			// produce an index whose neighbors mean nothing.
			embedder, embErr := embedding.NewONNXEmbedder(
				cfg.Embedding.ModelPath,
				cfg.Embedding.Dimensions,
				cfg.Embedding.MaxTokens,
				cfg.Embedding.CacheSize,
			)
			if embErr != nil {
				components.Close()
				return nil, fmt.Errorf("failed to load embedding model %s: %w", cfg.Embedding.ModelPath, embErr)
			}
			components.Embedder = embedder
		}
	}

	if needs.Index {
		idx, idxErr := vector.New(cfg.Vector.IndexType, cfg.Embedding.Dimensions)
		if idxErr != nil {
			components.Close()
			return nil, fmt.Errorf("failed to initialize vector index: %w", idxErr)
		}
		components.Index = idx
		if needs.LoadIndex {
			if loadErr := idx.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
				components.Close()
				return nil, fmt.Errorf("failed to load vector index %s: %w", cfg.Storage.VectorIndexPath, loadErr)
			}
		}
		logger.Info("vector index initialized",
			zap.String("type", idx.Type()),
			zap.Int("size", idx.Size()),
			zap.Bool("faiss_available", vector.IsFAISSAvailable()))
	}

	if components.Embedder != nil && components.Index != nil {
		components.Engine = search.NewEngine(store, components.Embedder, components.Index, &cfg.Search)
	}
	return components, nil
}

func printUsage() {
	fmt.Println(`kreuzsuche - cross-lingual sentence search (English queries, German corpus)

Usage:
  kreuzsuche fetch [flags]            Download and load the parallel corpus
  kreuzsuche embed [flags]            Compute sentence embeddings for the corpus
  kreuzsuche build [flags]            Build and save the vector index
  kreuzsuche serve [flags]            Start the HTTP server
  kreuzsuche search [flags] <query>   Search the corpus with an English query
  kreuzsuche status [flags]           Show corpus/index status
  kreuzsuche version                  Show version
  kreuzsuche help                     Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kreuzsuche/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to search local artifacts directly.
  --top-k int        Number of results (default: server default, usually 5)
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for local artifacts.
  --output string    Output format: text or json (default: text)

Examples:
  kreuzsuche fetch
  kreuzsuche embed
  kreuzsuche build
  kreuzsuche serve
  kreuzsuche search where is the train station
  kreuzsuche search --top-k 10 --output json good morning
  kreuzsuche status --output json`)
}
