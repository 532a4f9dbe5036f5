// Package main is the semantik CLI entry point.
package main

import (
	"bufio"
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
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/semantik/internal/cli"
	"github.com/hyperjump/semantik/internal/config"
	"github.com/hyperjump/semantik/internal/fileid"
	"github.com/hyperjump/semantik/internal/indexer"
	"github.com/hyperjump/semantik/internal/models"
	"github.com/hyperjump/semantik/internal/server"
	"github.com/hyperjump/semantik/internal/storage"
	"github.com/hyperjump/semantik/internal/watcher"
	"github.com/hyperjump/semantik/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/semantik/config.yaml"
	defaultServerURL  = "http://localhost:8501"
)

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence if it exists. A missing default file
// is not an error: the built-in defaults are used instead.
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
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "serve", "server":
		runServe()
	case "search":
		runSearch()
	case "repl":
		runRepl()
	case "index":
		runIndex()
	case "page":
		runPage()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("semantik version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config, creates the logger and initializes the components.
// It exits the process on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)
	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	watch := fs.Bool("watch", false, "watch the library for changes (also enabled by library.watch in the config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if n, err := components.Indexer.Prune(ctx); err != nil {
		logger.Warn("prune failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("removed documents whose files are gone", zap.Int("count", n))
	}

	watchSvc := watcher.NewWatcher(
		cfg.Library.Directories,
		cfg.Library.RecursiveOrDefault(),
		components.Indexer,
		watcher.WithLogger(logger),
	)
	if *watch || cfg.Library.Watch {
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}
	go func() {
		n := watchSvc.SyncExisting(ctx)
		logger.Info("library synced", zap.Strings("directories", watchSvc.Directories()), zap.Int("files", n))
	}()

	srv := server.NewServer(components.Session, components.Storage, components.VectorIndex, cfg,
		server.WithLogger(logger),
		server.WithIndexer(components.Indexer),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if err := components.Indexer.Save(); err != nil {
		logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: semantik search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Each match is checked against its PDF: page labels outside the document are
corrected by locating the passage text, and passages that cannot be located
are reported as dropped.

Examples:
  semantik search lease liabilities
  semantik search --mode hybrid --top-k 5 "deferred revenue"
  semantik search --server "" --output json goodwill impairment   # no server running
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front so that flag.Parse sees them. Go's flag package stops at
// the first non-flag argument.
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
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the indices directly when no server is running)")
	topK := fs.Int("top-k", 0, "number of passages to retrieve (default from config)")
	mode := fs.String("mode", "", "retrieval mode: semantic or hybrid (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

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
	m, err := modeFlag(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	searchQuery := &models.SearchQuery{Query: queryStr, TopK: *topK, Mode: m}

	var response *models.SearchResponse
	if *serverURL != "" {
		// The server holds the Bleve and SQLite locks, so go through its API.
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		response, err = components.Session.Search(context.Background(), searchQuery)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runRepl() {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	skipIndex := fs.Bool("skip-index", false, "search the existing index without scanning the library first")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	if !*skipIndex {
		start := time.Now()
		for _, dir := range cfg.Library.Directories {
			stats, err := components.Indexer.IndexDirectory(ctx, dir, cfg.Library.RecursiveOrDefault())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Indexing %s failed: %v\n", dir, err)
				continue
			}
			fmt.Printf("%s: %d indexed, %d unchanged, %d failed\n", dir, stats.Indexed, stats.Skipped, stats.Failed)
		}
		if err := components.Indexer.Save(); err != nil {
			logger.Warn("vector index save failed", zap.Error(err))
		}
		fmt.Printf("Index ready in %.2fs\n", time.Since(start).Seconds())
	}

	repl(ctx, os.Stdin, os.Stdout, components.Session)
}

// querySession is the part of search.Session the REPL drives.
type querySession interface {
	Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error)
	SetTopK(k int) int
}

// repl reads queries from in until EOF or "exit". A line ":k N" changes the
// number of passages retrieved per query.
func repl(ctx context.Context, in io.Reader, out io.Writer, session querySession) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nEnter a query: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return
		case strings.HasPrefix(line, ":k"):
			k, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":k")))
			if err != nil {
				fmt.Fprintln(out, "usage: :k <number>")
				continue
			}
			fmt.Fprintf(out, "top-k set to %d\n", session.SetTopK(k))
			continue
		}

		start := time.Now()
		response, err := session.Search(ctx, &models.SearchQuery{Query: line})
		if err != nil {
			fmt.Fprintf(out, "Search failed: %v\n", err)
			continue
		}
		_ = cli.WriteSearchResults(out, response, cli.OutputText)
		fmt.Fprintf(out, "Query took %.2fs\n", time.Since(start).Seconds())
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	paths := fs.Args()
	if len(paths) == 0 {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		paths = cfg.Library.Directories
	}

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	failed := false
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Printf("Failed to stat path: %v\n", err)
			failed = true
			continue
		}
		if info.IsDir() {
			stats, err := components.Indexer.IndexDirectory(ctx, path, cfg.Library.RecursiveOrDefault())
			if err != nil {
				fmt.Printf("Indexing directory failed: %v\n", err)
				failed = true
				continue
			}
			fmt.Printf("Indexed %d file(s) from %s (%d unchanged, %d failed)\n", stats.Indexed, path, stats.Skipped, stats.Failed)
			continue
		}
		if err := components.Indexer.IndexFile(ctx, path); err != nil {
			fmt.Printf("Indexing failed: %v\n", err)
			failed = true
			continue
		}
		absPath, _ := filepath.Abs(path)
		fmt.Printf("Document indexed successfully: %s\n", fileid.DocID(absPath))
	}
	if err := components.Indexer.Save(); err != nil {
		fmt.Printf("Saving vector index failed: %v\n", err)
		failed = true
	}
	if failed {
		os.Exit(1)
	}
}

func runPage() {
	fs := flag.NewFlagSet("page", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	query := fs.String("q", "", "highlight the terms of this query")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: semantik page [flags] <document-id|file> <page>")
		os.Exit(1)
	}
	page, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fmt.Printf("Invalid page number %q\n", fs.Arg(1))
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	path := fs.Arg(0)
	doc, err := components.Storage.GetDocument(ctx, path)
	if err == nil {
		path = doc.Path
	}
	text, err := components.Session.PageText(ctx, path, page, *query)
	if err != nil {
		fmt.Printf("Reading page failed: %v\n", err)
		os.Exit(1)
	}
	if doc != nil {
		text.DocumentID = doc.ID
	}
	if err := cli.WritePageText(os.Stdout, text, format); err != nil {
		fmt.Printf("Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: semantik delete [flags] <document-id|file>")
		os.Exit(1)
	}
	target := fs.Arg(0)

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	var err error
	if indexer.IsPDF(target) {
		err = components.Indexer.DeletePath(ctx, target)
	} else {
		err = components.Indexer.DeleteDocument(ctx, target)
	}
	if err == nil {
		err = components.Indexer.Save()
	}
	if err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", target)
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	EmbeddingDimensions int      `json:"embedding_dimensions,omitempty"`
	ChunkSize           int      `json:"chunk_size,omitempty"`
	ChunkOverlap        int      `json:"chunk_overlap,omitempty"`
	Mode                string   `json:"mode,omitempty"`
	AnchorLength        int      `json:"anchor_length,omitempty"`
	Library             []string `json:"library,omitempty"`
	DatabasePath        string   `json:"database_path,omitempty"`
	BleveIndexPath      string   `json:"bleve_index_path,omitempty"`
	VectorIndexPath     string   `json:"vector_index_path,omitempty"`
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Documents       int64                 `json:"documents"`
	Chunks          int64                 `json:"chunks"`
	VectorIndexSize int                   `json:"vector_index_size"`
	DiskUsageBytes  *int64                `json:"disk_usage_bytes,omitempty"`
	Config          *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the indices directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	var err error
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		status, err = localStatus(context.Background(), cfg, components)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
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
		writeStatusText(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func localStatus(ctx context.Context, cfg *config.Config, components *Components) (*statusResponse, error) {
	docCount, err := components.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunkCount, err := components.Storage.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	status := &statusResponse{
		Documents:       docCount,
		Chunks:          chunkCount,
		VectorIndexSize: components.VectorIndex.Size(),
		Config: &statusConfigResponse{
			EmbeddingDimensions: cfg.Embedding.Dimensions,
			ChunkSize:           cfg.Search.ChunkSize,
			ChunkOverlap:        cfg.Search.ChunkOverlap,
			Mode:                cfg.Search.Mode,
			AnchorLength:        cfg.Search.AnchorLength,
			Library:             cfg.Library.Directories,
			DatabasePath:        cfg.Storage.DatabasePath,
			BleveIndexPath:      cfg.Storage.BleveIndexPath,
			VectorIndexPath:     cfg.Storage.VectorIndexPath,
		},
	}
	if usage, err := storage.MeasureUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.VectorIndexPath); err == nil {
		total := usage.Total()
		status.DiskUsageBytes = &total
	}
	return status, nil
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "documents:          %d   # count of indexed PDFs\n", status.Documents)
	fmt.Fprintf(w, "chunks:             %d   # count of text chunks\n", status.Chunks)
	fmt.Fprintf(w, "vector_index_size:  %d   # count of vectors in semantic index\n", status.VectorIndexSize)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # storage + indices on disk\n", *status.DiskUsageBytes)
	}
	c := status.Config
	if c == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	if c.EmbeddingDimensions > 0 {
		fmt.Fprintf(w, "embedding_dims:     %d\n", c.EmbeddingDimensions)
	}
	if c.ChunkSize > 0 {
		fmt.Fprintf(w, "chunk_size:         %d\n", c.ChunkSize)
	}
	if c.ChunkOverlap > 0 {
		fmt.Fprintf(w, "chunk_overlap:      %d\n", c.ChunkOverlap)
	}
	if c.Mode != "" {
		fmt.Fprintf(w, "mode:               %s\n", c.Mode)
	}
	if c.AnchorLength > 0 {
		fmt.Fprintf(w, "anchor_length:      %d\n", c.AnchorLength)
	}
	for _, dir := range c.Library {
		fmt.Fprintf(w, "library:            %s\n", dir)
	}
	if c.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
	}
	if c.BleveIndexPath != "" {
		fmt.Fprintf(w, "bleve_index_path:   %s\n", c.BleveIndexPath)
	}
	if c.VectorIndexPath != "" {
		fmt.Fprintf(w, "vector_index_path:  %s\n", c.VectorIndexPath)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`semantik - semantic search over a folder of PDFs, with verified page citations

Usage:
  semantik serve [flags]               Start the HTTP server
  semantik search [flags] <query>      Search the library
  semantik repl [flags]                Index the library, then answer queries interactively
  semantik index [flags] [path...]     Index PDFs or directories (default: the configured library)
  semantik page [flags] <id|file> <n>  Print the text of one page
  semantik delete [flags] <id|file>    Remove a document from the index
  semantik status [flags]              Show index status
  semantik version                     Show version
  semantik help                        Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/semantik/config.yaml, or ./config.yaml if present)
  --debug            Enable debug logging
  --watch            Re-index PDFs as they change

Search Flags:
  --server string    Server URL (default: http://localhost:8501). Use --server "" to open the indices directly.
  --top-k int        Passages to retrieve (default from config, max from config)
  --mode string      semantic or hybrid (default from config)
  --output string    text, compact or json (default: text)
  --config string    Config file path (direct mode)

Repl Flags:
  --config string    Config file path
  --skip-index       Do not scan the library before the first query

Page Flags:
  --q string         Highlight the terms of this query
  --output string    text or json

Status Flags:
  --server string    Server URL (default: http://localhost:8501). Use --server "" for direct access.
  --output string    text or json (default: text)

Examples:
  semantik serve --watch
  semantik search "lease liabilities"
  semantik search --mode hybrid --output json deferred revenue
  semantik repl
  semantik index ~/Documents/reports
  semantik page --q "lease" pdf:3f2a9c0d11e84b6a 7
  semantik status --output json`)
}
