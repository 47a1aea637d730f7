// Package main is the paperbox CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/paperbox/internal/cli"
	"github.com/hyperjump/paperbox/internal/config"
	"github.com/hyperjump/paperbox/internal/corpus"
	"github.com/hyperjump/paperbox/internal/engine"
	"github.com/hyperjump/paperbox/internal/extract"
	"github.com/hyperjump/paperbox/internal/ingest"
	"github.com/hyperjump/paperbox/internal/keyword"
	"github.com/hyperjump/paperbox/internal/models"
	"github.com/hyperjump/paperbox/internal/render"
	"github.com/hyperjump/paperbox/internal/server"
	"github.com/hyperjump/paperbox/internal/storage"
	"github.com/hyperjump/paperbox/pkg/utils"
)

var version = "dev"

// usageError marks bad invocations; they exit with status 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type command func(ctx context.Context, args []string, out io.Writer) error

var commands = map[string]command{
	"init":      runInit,
	"ingest":    runIngest,
	"list":      runList,
	"view":      runView,
	"search":    runSearch,
	"summarize": runSummarize,
	"compare":   runCompare,
	"graph":     runGraph,
	"delete":    runDelete,
	"status":    runStatus,
	"serve":     runServe,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}
	name := args[0]
	switch name {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "paperbox version %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", name)
		printUsage(stderr)
		return 2
	}
	err := cmd(ctx, args[1:], stdout)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

// commonFlags are accepted by every subcommand that touches a project.
type commonFlags struct {
	project string
	config  string
	debug   bool
	json    bool
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &commonFlags{}
	fs.StringVar(&c.project, "project", "", "project directory (default: $PAPERBOX_PROJECT or .)")
	fs.StringVar(&c.project, "p", "", "shorthand for --project")
	fs.StringVar(&c.config, "config", "", "config file path (default: <project>/paperbox.yaml)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&c.json, "json", false, "write JSON instead of text")
	return fs, c
}

// parse parses args, allowing flags before, between and after positional arguments, and
// returns the positional arguments in order. Everything after "--" is positional. Flag errors
// become usage errors.
func parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var tail []string
	for i, a := range args {
		if a == "--" {
			args, tail = args[:i], args[i+1:]
			break
		}
	}
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, usagef("%s: %v", fs.Name(), err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	return append(positional, tail...), nil
}

// isSet reports whether any of the named flags was given on the command line.
func isSet(fs *flag.FlagSet, names ...string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				set = true
			}
		}
	})
	return set
}

// buildSearchQuery joins all positional args with spaces so multi-word queries work the
// same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseDocID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, usagef("invalid document id %q", s)
	}
	return id, nil
}

// Components holds initialized services.
type Components struct {
	Config       *config.Config
	Logger       *zap.Logger
	Storage      storage.Storage
	KeywordIndex *keyword.BleveIndex
	Ingester     *ingest.Ingester
	Engine       *engine.Engine
}

func (c *Components) Close() {
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// open resolves the config for the common flags and initializes every component.
func open(ctx context.Context, c *commonFlags) (*Components, error) {
	cfg, err := config.Resolve(c.config, c.project)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.debug {
		cfg.Debug = true
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return comps, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.IndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	comps := &Components{Config: cfg, Logger: logger, Storage: store, KeywordIndex: keywordIndex}

	comps.Ingester = ingest.NewIngester(store, keywordIndex, extract.NewExtractor(),
		ingest.WithLogger(logger), ingest.WithExtensions(cfg.Ingest.Extensions))
	if n, err := comps.Ingester.SyncIndex(ctx); err != nil {
		comps.Close()
		return nil, fmt.Errorf("failed to sync keyword index: %w", err)
	} else if n > 0 {
		logger.Info("keyword index repaired", zap.Int("entries", n))
	}
	comps.Engine = engine.NewEngine(store, keywordIndex,
		engine.WithLogger(logger),
		engine.WithSearchConfig(cfg.Search),
		engine.WithSuggester(keyword.NewSuggester(keywordIndex)))
	return comps, nil
}

func runInit(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("init")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	project := common.project
	if len(pos) > 0 {
		project = pos[0]
	}
	if project == "" {
		return usagef("usage: paperbox init <project-dir>")
	}
	path, created, err := config.InitProject(project)
	if err != nil {
		return err
	}
	common.project = project
	if common.config == "" {
		common.config = path
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	abs, _ := filepath.Abs(project)
	if common.json {
		return cli.WriteJSON(out, map[string]interface{}{"project": abs, "config": path, "created": created})
	}
	fmt.Fprintf(out, "OK initialized: %s\n", abs)
	return nil
}

func runIngest(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("ingest")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 1 {
		return usagef("usage: paperbox ingest [flags] <file-or-directory>...")
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	report, err := comps.Ingester.Ingest(ctx, pos...)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return cli.WriteIngestReport(out, report, cli.FormatFor(common.json))
}

func runList(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("list")
	offset := fs.Int("offset", 0, "skip this many documents")
	limit := fs.Int("limit", 0, "list at most this many documents (0 = all)")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	docs, err := comps.Engine.Documents(ctx, *offset, *limit)
	if err != nil {
		return err
	}
	return cli.WriteDocuments(out, docs, cli.FormatFor(common.json))
}

func runView(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("view")
	head := fs.Int("head", 80, "show the first N lines (0 = all)")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usagef("usage: paperbox view [flags] <document-id>")
	}
	id, err := parseDocID(pos[0])
	if err != nil {
		return err
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	doc, err := comps.Engine.Document(ctx, id)
	if err != nil {
		return err
	}
	return cli.WriteDocument(out, doc, *head, cli.FormatFor(common.json))
}

func runSearch(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("search")
	top := fs.Int("top", 0, "number of results (default from config)")
	fuzzy := fs.Bool("fuzzy", false, "match terms within a small edit distance")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	query := buildSearchQuery(pos)
	if query == "" {
		return usagef("usage: paperbox search [flags] <query>")
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	limit := *top
	if !isSet(fs, "top") {
		limit = comps.Config.Search.Limit
	}
	response, err := comps.Engine.Search(ctx, &models.SearchQuery{Query: query, Limit: limit, Fuzzy: *fuzzy})
	if err != nil {
		return err
	}
	return cli.WriteSearchResults(out, response, cli.FormatFor(common.json))
}

func runSummarize(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("summarize")
	var sentences int
	fs.IntVar(&sentences, "sentences", 0, "number of sentences (default from config)")
	fs.IntVar(&sentences, "n", 0, "shorthand for --sentences")
	ids := fs.String("ids", "", "weight against these documents only, e.g. 1,2,3")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usagef("usage: paperbox summarize [flags] <document-id>")
	}
	id, err := parseDocID(pos[0])
	if err != nil {
		return err
	}
	scope, err := scopeFromFlag(*ids, 0)
	if err != nil {
		return err
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	if !isSet(fs, "sentences", "n") {
		sentences = comps.Config.Analytics.SentenceCount
	}
	doc, err := comps.Engine.Document(ctx, id)
	if err != nil {
		return err
	}
	summary, err := comps.Engine.Summarize(ctx, id, sentences, scope)
	if err != nil {
		return err
	}
	return cli.WriteSummary(out, doc, summary, cli.FormatFor(common.json))
}

func runCompare(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("compare")
	topTerms := fs.Int("top-terms", 0, "terms per list (default from config)")
	ids := fs.String("ids", "", "weight against these documents only, e.g. 1,2,3")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return usagef("usage: paperbox compare [flags] <document-id> <document-id>")
	}
	a, err := parseDocID(pos[0])
	if err != nil {
		return err
	}
	b, err := parseDocID(pos[1])
	if err != nil {
		return err
	}
	scope, err := scopeFromFlag(*ids, 0)
	if err != nil {
		return err
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	top := *topTerms
	if !isSet(fs, "top-terms") {
		top = comps.Config.Analytics.TopTerms
	}
	cmp, err := comps.Engine.Compare(ctx, a, b, top, scope)
	if err != nil {
		return err
	}
	docA, err := comps.Engine.Document(ctx, a)
	if err != nil {
		return err
	}
	docB, err := comps.Engine.Document(ctx, b)
	if err != nil {
		return err
	}
	return cli.WriteComparison(out, cmp, docA, docB, cli.FormatFor(common.json))
}

func runGraph(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("graph")
	threshold := fs.Float64("threshold", 0, "edge threshold in [0,1] (default from config)")
	formatName := fs.String("format", "mermaid", "output format: mermaid, dot or json")
	maxNodes := fs.Int("max-nodes", 0, "use only the first N documents by id (default from config)")
	ids := fs.String("ids", "", "graph these documents only, e.g. 1,2,3")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	format, err := render.ParseFormat(*formatName)
	if err != nil {
		return usagef("%v", err)
	}
	if common.json {
		format = render.FormatJSON
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	th := *threshold
	if !isSet(fs, "threshold") {
		th = comps.Config.Analytics.ThresholdOrDefault()
	}
	limit := *maxNodes
	if !isSet(fs, "max-nodes") {
		limit = comps.Config.Analytics.MaxNodes
	} else if limit <= 0 {
		return usagef("--max-nodes must be positive, got %d", limit)
	}
	scope, err := scopeFromFlag(*ids, limit)
	if err != nil {
		return err
	}

	g, err := comps.Engine.Graph(ctx, th, scope)
	if err != nil {
		return err
	}
	if format == render.FormatJSON {
		return cli.WriteJSON(out, g)
	}
	if len(g.Nodes) == 0 {
		fmt.Fprintln(out, "No docs found.")
		return nil
	}
	text, err := render.Graph(g, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func runDelete(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("delete")
	pos, err := parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usagef("usage: paperbox delete [flags] <document-id>")
	}
	id, err := parseDocID(pos[0])
	if err != nil {
		return err
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	if err := comps.Ingester.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if common.json {
		return cli.WriteJSON(out, map[string]interface{}{"id": id, "status": "deleted"})
	}
	fmt.Fprintf(out, "Document deleted: %d\n", id)
	return nil
}

func runStatus(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("status")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	status, err := comps.Engine.Stats(ctx)
	if err != nil {
		return err
	}
	cfg := comps.Config
	status.DatabasePath = cfg.Storage.DatabasePath
	status.IndexPath = cfg.Storage.IndexPath
	if usage, err := storage.DiskUsage(cfg.Storage.DatabasePath, cfg.Storage.IndexPath); err == nil {
		total := usage.Total()
		status.DiskUsageBytes = &total
	}
	return cli.WriteStatus(out, status, cli.FormatFor(common.json))
}

func runServe(ctx context.Context, args []string, out io.Writer) error {
	fs, common := newFlagSet("serve")
	host := fs.String("host", "", "listen host (default from config)")
	port := fs.Int("port", 0, "listen port (default from config)")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	comps, err := open(ctx, common)
	if err != nil {
		return err
	}
	defer comps.Close()

	cfg := comps.Config
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	srv := server.NewServer(comps.Engine, comps.Ingester, cfg, comps.Logger)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	comps.Logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func scopeFromFlag(ids string, maxDocuments int) (engine.Scope, error) {
	parsed, err := corpus.ParseIDs(ids)
	if err != nil {
		return engine.Scope{}, usagef("--ids: %v", err)
	}
	return engine.Scope{IDs: parsed, MaxDocuments: maxDocuments}, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `paperbox - local document analytics

Usage:
  paperbox init <project-dir>                 Create a project (config, database, index)
  paperbox ingest [flags] <path>...           Extract and store files or directories
  paperbox list [flags]                       List stored documents
  paperbox view [flags] <id>                  Show the extracted text of a document
  paperbox search [flags] <query>             Full-text search
  paperbox summarize [flags] <id>             Extractive summary of a document
  paperbox compare [flags] <id> <id>          Similarity plus shared and unique terms
  paperbox graph [flags]                      Similarity graph as Mermaid, DOT or JSON
  paperbox delete [flags] <id>                Remove a document
  paperbox status [flags]                     Show counts and storage usage
  paperbox serve [flags]                      Start the HTTP API
  paperbox version                            Show version
  paperbox help                               Show this help

Common Flags:
  --project, -p string   Project directory (default: $PAPERBOX_PROJECT or .)
  --config string        Config file (default: $PAPERBOX_CONFIG or <project>/paperbox.yaml)
  --json                 Write JSON instead of text
  --debug                Enable debug logging

Command Flags:
  list        --offset int, --limit int
  view        --head int (default 80)
  search      --top int (default 10), --fuzzy
  summarize   --sentences, -n int (default 7), --ids 1,2,3
  compare     --top-terms int (default 15), --ids 1,2,3
  graph       --threshold float (default 0.25), --format mermaid|dot|json,
              --max-nodes int (default 60), --ids 1,2,3
  serve       --host string, --port int

Examples:
  paperbox init ./papers
  paperbox ingest -p ./papers ~/Downloads/reading
  paperbox search -p ./papers "causal inference"
  paperbox summarize -p ./papers -n 5 3
  paperbox compare -p ./papers 3 7 --top-terms 10
  paperbox graph -p ./papers --threshold 0.3 --format dot > graph.dot
`)
}
