package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Barac9492/contrarian-brief/pkg/config"
	"github.com/Barac9492/contrarian-brief/pkg/content"
	"github.com/Barac9492/contrarian-brief/pkg/feed"
	"github.com/Barac9492/contrarian-brief/pkg/ingest"
	"github.com/Barac9492/contrarian-brief/pkg/llm"
	"github.com/Barac9492/contrarian-brief/pkg/scheduler"
	"github.com/Barac9492/contrarian-brief/pkg/store"
	"github.com/Barac9492/contrarian-brief/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"f" long:"config" env:"CONFIG" default:"config.yml" description:"config file"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	// optional .env for local development, ignored when absent
	_ = godotenv.Load()

	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

// run wires dependencies and blocks until the context is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLog(opts.Debug, cfg.LLM.APIKey, cfg.Cron.Secret)
	log.Printf("[INFO] starting contrarian-brief version %s", revision)

	kv, err := store.NewKV(store.KVConfig{
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Storage.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Printf("[WARN] blob store close error: %v", err)
		}
	}()

	posts := store.NewStore(kv, nil)
	if err := posts.Load(ctx); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	log.Printf("[INFO] collection loaded, %d posts", posts.Len())

	classifier := llm.NewClassifier(cfg.LLM)
	synthesizer := llm.NewSynthesizer(cfg.LLM)

	var extractor ingest.Extractor
	if cfg.Extraction.Enabled {
		extractor = content.NewExtractor(cfg.Extraction)
	}

	ingestor := ingest.New(ingest.Config{
		FeedURL:    cfg.Feed.URL,
		Fetcher:    feed.NewHTTPFetcher(cfg.Feed.Timeout, cfg.Extraction.UserAgent),
		Classifier: classifier,
		Collection: posts,
		Extractor:  extractor,
		Cache:      feed.NewCache(cfg.Feed.CacheTTL, nil),
	})

	sched := scheduler.New(ingestor, cfg.Feed.UpdateInterval)
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(server.Config{
		Listen:     cfg.Server.Listen,
		Timeout:    cfg.Server.Timeout,
		Version:    revision,
		Debug:      opts.Debug,
		CronSecret: cfg.Cron.Secret,
		Production: cfg.Cron.Production,
	}, posts, classifier, synthesizer, ingestor)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })

	return g.Wait()
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
