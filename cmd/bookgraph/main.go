package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hanpama/bookgraph/internal/eventbus"
	"github.com/hanpama/bookgraph/internal/graph"
	"github.com/hanpama/bookgraph/internal/logging"
	"github.com/hanpama/bookgraph/internal/metrics"
	"github.com/hanpama/bookgraph/internal/otel"
	"github.com/hanpama/bookgraph/internal/server"
	"github.com/hanpama/bookgraph/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const rootUsage = `bookgraph: GraphQL server for authors and books

USAGE:
  bookgraph <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL server
  query            Execute one GraphQL operation against a seeded store and print JSON
  print-schema     Print the GraphQL schema in SDL
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>            Maximum request body size (default: 1048576, 0 = unlimited)
  -server.cors <origin>               Allowed CORS origin. Repeatable; "*" allows any
  -graphql.introspection <bool>       Enable GraphQL introspection (default: true)
  -graphiql <bool>                    Serve GraphiQL to browsers (default: true)
  -store.driver <name>                Store backend: memory or sqlite (default: memory)
  -store.seed <file>                  YAML or JSON dataset (default: embedded dataset)
  -graph.strict-author-refs <bool>    Reject addBook with an unknown authorId (default: true)
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.format <format>                json or console (default: json)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: bookgraph)
`

const queryUsage = `query [flags] <document | ->
  Reads the document from stdin when it is "-".
  -operation <name>                   Operation to run when the document has several
  -variables <json>                   Variables as a JSON object
  -pretty                             Pretty-print the result
  -store.driver <name>                Store backend: memory or sqlite (default: memory)
  -store.seed <file>                  YAML or JSON dataset (default: embedded dataset)
  -graph.strict-author-refs <bool>    Reject addBook with an unknown authorId (default: true)
  (Exits non-zero when the result carries errors)
`

const printSchemaUsage = `print-schema FLAGS:
  -out <file>              Write SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("bookgraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "query":
		return cmdQuery(cmdArgs, stdin, stdout, stderr)
	case "print-schema":
		return cmdPrintSchema(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "query":
		fmt.Fprint(stdout, queryUsage)
	case "print-schema":
		fmt.Fprint(stdout, printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return strings.Join(*s, ",") }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// storeConfig selects and seeds the entity store.
type storeConfig struct {
	driver     string
	seed       string
	strictRefs bool
}

func (c *storeConfig) register(fs *flag.FlagSet) {
	fs.StringVar(&c.driver, "store.driver", store.DriverMemory, "Store backend")
	fs.StringVar(&c.seed, "store.seed", "", "YAML or JSON dataset")
	fs.BoolVar(&c.strictRefs, "graph.strict-author-refs", true, "Reject addBook with an unknown authorId")
}

func (c storeConfig) open(ctx context.Context) (store.Store, error) {
	ds := store.DefaultDataset()
	if c.seed != "" {
		var err error
		if ds, err = store.LoadDataset(c.seed); err != nil {
			return nil, err
		}
	}
	st, err := store.Open(ctx, c.driver)
	if err != nil {
		return nil, err
	}
	if err := st.Seed(ctx, ds); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}
	return st, nil
}

type serveConfig struct {
	store         storeConfig
	addr          string
	pretty        bool
	timeout       time.Duration
	maxBody       int64
	cors          stringListFlag
	introspection bool
	graphiql      bool
	logLevel      string
	logFormat     string
	otelEndpoint  string
	otelService   string
}

func parseServeFlags(args []string) (serveConfig, error) {
	cfg := serveConfig{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	cfg.store.register(fs)
	fs.StringVar(&cfg.addr, "server.addr", ":8080", "HTTP listen address")
	fs.BoolVar(&cfg.pretty, "server.pretty", false, "Pretty-print JSON responses")
	fs.DurationVar(&cfg.timeout, "server.timeout", 10*time.Second, "Per-request timeout")
	fs.Int64Var(&cfg.maxBody, "server.max-body", 1<<20, "Maximum request body size")
	fs.Var(&cfg.cors, "server.cors", "Allowed CORS origin")
	fs.BoolVar(&cfg.introspection, "graphql.introspection", true, "Enable GraphQL introspection")
	fs.BoolVar(&cfg.graphiql, "graphiql", true, "Serve GraphiQL to browsers")
	fs.StringVar(&cfg.logLevel, "log.level", "info", "Log level")
	fs.StringVar(&cfg.logFormat, "log.format", "json", "Log format")
	fs.StringVar(&cfg.otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&cfg.otelService, "otel.service", "bookgraph", "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments %q", fs.Args())
	}
	return cfg, nil
}

// newMux wires the store, engine and observers behind an HTTP mux. The
// returned cleanup detaches the observers and closes the store.
func newMux(ctx context.Context, cfg serveConfig) (*http.ServeMux, func(), error) {
	st, err := cfg.store.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	reg, err := graph.NewRegistry()
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("build registry: %w", err)
	}
	engine, err := graph.NewEngine(reg, st,
		graph.WithStrictAuthorRefs(cfg.store.strictRefs),
		graph.WithIntrospection(cfg.introspection))
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	sopts := []server.Option{
		server.WithTimeout(cfg.timeout),
		server.WithMaxBodyBytes(cfg.maxBody),
		server.WithGraphiQL(cfg.graphiql),
	}
	if cfg.pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.cors) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.cors...))
	}

	m := metrics.New()
	unsubscribe := m.Subscribe()

	mux := http.NewServeMux()
	mux.Handle("/graphql", server.New(engine, sopts...))
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := st.Authors(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux, func() {
		unsubscribe()
		_ = st.Close()
	}, nil
}

func cmdServe(args []string, stderr io.Writer) error {
	cfg, err := parseServeFlags(args)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}

	logger, err := logging.New(cfg.logLevel, cfg.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(logger)()
	shutdown, err := otel.Setup(cfg.otelEndpoint, cfg.otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	mux, cleanup, err := newMux(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{Addr: cfg.addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening",
		zap.String("addr", cfg.addr),
		zap.String("store", cfg.store.driver),
		zap.Bool("strict_author_refs", cfg.store.strictRefs))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cmdQuery(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		sc        storeConfig
		operation string
		vars      string
		pretty    bool
	)
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	sc.register(fs)
	fs.StringVar(&operation, "operation", "", "Operation name")
	fs.StringVar(&vars, "variables", "", "Variables as a JSON object")
	fs.BoolVar(&pretty, "pretty", false, "Pretty-print the result")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, queryUsage)
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprint(stderr, queryUsage)
		return fmt.Errorf("expected exactly one document argument")
	}
	doc := fs.Arg(0)
	if doc == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		doc = string(b)
	}
	variables := map[string]any{}
	if vars != "" {
		if err := json.Unmarshal([]byte(vars), &variables); err != nil {
			return fmt.Errorf("invalid -variables JSON: %w", err)
		}
	}

	ctx := context.Background()
	st, err := sc.open(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	reg, err := graph.NewRegistry()
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	engine, err := graph.NewEngine(reg, st, graph.WithStrictAuthorRefs(sc.strictRefs))
	if err != nil {
		return err
	}

	res := engine.Execute(ctx, doc, operation, variables)
	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("query returned %d error(s)", len(res.Errors))
	}
	return nil
}

func cmdPrintSchema(args []string, stdout, stderr io.Writer) error {
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, printSchemaUsage)
		return err
	}

	reg, err := graph.NewRegistry()
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	sdl := reg.SDL()
	if outFile == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
