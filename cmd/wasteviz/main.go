package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/controller"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/search"
	"github.com/wasteviz/wasteviz/app/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "server":
		runServer()
	case "summarize":
		runSummarize()
	case "validate-topology":
		runValidateTopology()
	case "import":
		runImport()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: wasteviz <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  server             Start the wasteviz server")
	fmt.Fprintln(os.Stderr, "  summarize          Print aggregations for a year and state")
	fmt.Fprintln(os.Stderr, "  validate-topology  List map regions without a state name")
	fmt.Fprintln(os.Stderr, "  import             Load a CSV file into a SQLite database")
}

func mustLoadConfig(dataDir string) *config.WasteVizConfig {
	if dataDir == "" {
		slog.Error("--data-dir not provided, stopping")
		os.Exit(1)
	}
	conf, err := config.Load(dataDir)
	if err != nil {
		slog.Error("error while reading config", "dir", dataDir, "err", err)
		os.Exit(1)
	}
	return conf
}

func mustNewCache(conf *config.WasteVizConfig) *dataset.Cache {
	records, topology, err := dataset.SourcesFromConfig(conf)
	if err != nil {
		slog.Error("error while opening data sources", "err", err)
		os.Exit(1)
	}
	return dataset.NewCache(records, topology, dataset.DefaultRegions)
}

func runServer() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	var address, dataDir, certDir string
	var port, rateLimit, gzipLevel int
	var acme, behindLB, debug bool
	flags.StringVarP(&address, "address", "a", "localhost", "Server address to bind")
	flags.IntVarP(&port, "port", "p", 8080, "Server port to bind")
	flags.StringVarP(&dataDir, "data-dir", "d", "",
		"data directory to read config.json5 and the dataset from")
	flags.StringVar(&certDir, "cert-dir", "", "directory with fullchain.pem and privkey.pem, or the ACME cache")
	flags.BoolVar(&acme, "acme", false, "obtain certificates with ACME for the configured hostnames")
	flags.BoolVar(&behindLB, "behind-load-balancer", false, "rate limit by X-Forwarded-For instead of the remote address")
	flags.IntVar(&rateLimit, "rate-limit", 0, "requests per second per client, 0 disables")
	flags.IntVar(&gzipLevel, "gzip-level", 0, "gzip compression level, 0 disables")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")

	flags.Parse(os.Args[2:])

	if debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	conf := mustLoadConfig(dataDir)
	cache := mustNewCache(conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := cache.Load(ctx); err != nil {
		slog.Error("initial dataset load failed, views stay unrendered until a later load succeeds", "err", err)
	}
	labels := search.NewLazyIndex(cache.LoadRecords)
	defer labels.Close()
	if _, err := labels.Index(ctx); err != nil {
		slog.Warn("label index not built yet, retrying on the first search", "err", err)
	}

	results := aggregate.NewResultCache(time.Duration(conf.ResultCacheMinutes)*time.Minute, dataset.DefaultPopulation)
	views := controller.NewController(conf, cache, dataset.DefaultRegions, results)
	defer views.Close()
	if err := views.Refresh(ctx); err != nil {
		slog.Error("initial render failed", "err", err)
	}
	go views.Run(ctx)

	serverConf := config.ServerRuntimeConfig{
		Addr:               address,
		Port:               port,
		CertDir:            certDir,
		AcmeEnabled:        acme,
		BehindLoadBalancer: behindLB,
		RateLimit:          rateLimit,
		GzipLevel:          gzipLevel,
	}
	slog.Info("starting server", "address", address, "port", port)
	handlers := server.NewWasteVizController(conf, views, cache, labels)
	if err := server.StartServer(ctx, handlers, conf, serverConf); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func runSummarize() {
	flags := pflag.NewFlagSet("summarize", pflag.ExitOnError)
	var dataDir, state, by, modeName string
	var year, k int
	flags.StringVarP(&dataDir, "data-dir", "d", "", "data directory to read config.json5 and the dataset from")
	flags.IntVarP(&year, "year", "y", 0, "year to summarize, defaults to the latest")
	flags.StringVarP(&state, "state", "s", "", "state to summarize, empty for the whole country")
	flags.StringVar(&by, "by", controller.SubSectorChart, "category to rank: subsector, sector or food_type")
	flags.StringVarP(&modeName, "mode", "m", string(common.PerCapita), "state ranking mode: per_capita or total")
	flags.IntVarP(&k, "top", "k", 0, "length of ranked lists, defaults to top_k from the config")

	flags.Parse(os.Args[2:])

	conf := mustLoadConfig(dataDir)
	mode, err := common.ParseViewMode(modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if k <= 0 {
		k = conf.TopK
	}

	rows, err := mustNewCache(conf).LoadRecords(context.Background())
	if err != nil {
		slog.Error("error while loading records", "err", err)
		os.Exit(1)
	}
	err = printSummary(os.Stdout, rows, summaryParams{Year: year, State: state, By: by, Mode: mode, K: k})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runValidateTopology() {
	flags := pflag.NewFlagSet("validate-topology", pflag.ExitOnError)
	var dataDir string
	flags.StringVarP(&dataDir, "data-dir", "d", "", "data directory to read config.json5 and the topology from")

	flags.Parse(os.Args[2:])

	cache := mustNewCache(mustLoadConfig(dataDir))
	topo, err := cache.LoadTopology(context.Background())
	if err != nil {
		slog.Error("error while loading topology", "err", err)
		os.Exit(1)
	}
	unresolved := cache.Unresolved()
	printUnresolved(os.Stdout, len(topo.Collection.Features), unresolved)
	if len(unresolved) > 0 {
		os.Exit(2)
	}
}

func runImport() {
	flags := pflag.NewFlagSet("import", pflag.ExitOnError)
	var input, output string
	flags.StringVarP(&input, "input", "i", "", "CSV file to read (required)")
	flags.StringVarP(&output, "output", "o", "", "SQLite database to write (required)")

	flags.Parse(os.Args[2:])

	if input == "" || output == "" {
		fmt.Fprintln(os.Stderr, "Error: --input and --output are required")
		os.Exit(1)
	}

	ctx := context.Background()
	rows, err := dataset.FileRecordSource{Path: input}.LoadRecords(ctx)
	if err != nil {
		slog.Error("error while reading CSV", "input", input, "err", err)
		os.Exit(1)
	}
	db, err := dataset.NewSQLiteDB(output, false)
	if err != nil {
		slog.Error("error while opening SQLite DB", "output", output, "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := dataset.InitSQLiteSchema(ctx, db); err != nil {
		slog.Error("error while creating schema", "err", err)
		os.Exit(1)
	}
	if err := dataset.ImportRecords(ctx, db, rows); err != nil {
		slog.Error("error while importing records", "err", err)
		os.Exit(1)
	}
}
