package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"

	"datfeed/gateway/internal/config"
	"datfeed/gateway/internal/gateway"
	"datfeed/gateway/internal/origin"
	"datfeed/gateway/internal/process"
	"datfeed/gateway/internal/server"
	"datfeed/gateway/internal/storage"
)

const version = "1.0.0"

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	app := cli.NewApp()
	app.Name = "datfeed"
	app.Usage = "RSS, Atom and JSON feeds for dat-log bulletin boards"
	app.Version = version

	configFlag := cli.StringFlag{Name: "config, c", Usage: "path to YAML config file", EnvVar: config.EnvPrefix + "CONFIG"}
	logLevelFlag := cli.StringFlag{Name: "log-level", Usage: "log level: debug, info, warn, error"}
	storeFlag := cli.StringFlag{Name: "store", Usage: "origin cache backend: sqlite, leveldb, postgres"}
	dbFlag := cli.StringFlag{Name: "db", Usage: "path to the SQLite database file"}

	app.Commands = []cli.Command{
		{
			Name:        "server",
			ShortName:   "s",
			Usage:       "run the feed gateway",
			Description: "serve board and thread feeds over HTTP",
			Flags: []cli.Flag{
				configFlag, logLevelFlag, storeFlag, dbFlag,
				cli.StringFlag{Name: "host", Usage: "host to bind the server to"},
				cli.IntFlag{Name: "port, p", Usage: "port to listen on"},
				cli.DurationFlag{Name: "sweep-interval", Usage: "interval between stale cache sweeps, 0 disables"},
			},
			Action: runServer,
		},
		{
			Name:        "clean",
			Usage:       "evict cached origin resources",
			Description: "remove origin records idle for longer than clean_age, or all of them with --all",
			Flags: []cli.Flag{
				configFlag, logLevelFlag, storeFlag, dbFlag,
				cli.BoolFlag{Name: "all", Usage: "remove every record"},
			},
			Action: runClean,
		},
		{
			Name:        "fetch",
			Usage:       "render one feed to stdout",
			ArgsUsage:   "server board [thread] | thread-url",
			Description: "fetch a board or thread through the cache and print the rendered feed",
			Flags: []cli.Flag{
				configFlag, logLevelFlag, storeFlag, dbFlag,
				cli.StringFlag{Name: "format, f", Usage: "rss, atom or json"},
				cli.StringFlag{Name: "limit, l", Usage: "maximum number of items"},
				cli.StringFlag{Name: "time, t", Usage: "time window such as \"3 days\""},
			},
			Action: runFetch,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("log-level"); v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", v, err)
		}
		cfg.LogLevel = level
	}
	if v := c.String("store"); v != "" {
		cfg.StoreDriver = v
	}
	if v := c.String("db"); v != "" {
		cfg.DBPath = v
	}
	if c.IsSet("host") {
		cfg.ServerHost = c.String("host")
	}
	if c.IsSet("port") {
		cfg.ServerPort = c.Int("port")
	}
	if c.IsSet("sweep-interval") {
		cfg.SweepInterval = c.Duration("sweep-interval")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	return cfg, nil
}

// newService opens the origin store and assembles the gateway service.
func newService(ctx context.Context, cfg *config.Config) (*gateway.Service, storage.Store, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open origin store")
		return nil, nil, fmt.Errorf("failed to open origin store: %w", err)
	}

	fetcher := origin.NewFetcher(store, origin.Options{
		Timeout:     cfg.OriginTimeout,
		Concurrency: cfg.OriginConcurrency,
		Rate:        cfg.OriginRate,
		UserAgent:   cfg.UserAgent,
	})
	return gateway.NewService(cfg, store, fetcher), store, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-shutdown:
			log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(shutdown)
	}()
	return ctx, cancel
}

func runServer(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log.Debug().Msg("Starting server with debug logging enabled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, store, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.SweepInterval > 0 {
		sweeper, err := process.NewSweeper(svc, cfg.SweepInterval, cfg.CleanAge)
		if err != nil {
			return fmt.Errorf("failed to initialize sweeper: %w", err)
		}
		go sweeper.Run(ctx)
	}

	router := server.NewRouter(svc, cfg.CleanAge, log.Logger, cfg.APIKey)
	return server.RunServer(router, cfg.ListenAddr(), log.Logger)
}

func runClean(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, store, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Bool("all") {
		n, err := svc.EvictAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d origin records\n", n)
		return nil
	}

	sweeper, err := process.NewSweeper(svc, 0, cfg.CleanAge)
	if err != nil {
		return err
	}
	n, err := sweeper.RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d origin records idle for more than %s\n", n, cfg.CleanAge)
	return nil
}

func runFetch(c *cli.Context) error {
	var serverName, board, thread string
	switch args := c.Args(); len(args) {
	case 1:
		var err error
		serverName, board, thread, err = gateway.ParseThreadURL(args[0])
		if err != nil {
			return err
		}
	case 2, 3:
		serverName, board, thread = args[0], args[1], args.Get(2)
	default:
		cli.ShowCommandHelp(c, c.Command.Name)
		return fmt.Errorf("expected a thread URL or server and board")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, store, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	q := url.Values{}
	for _, name := range []string{"format", "limit", "time"} {
		if v := c.String(name); v != "" {
			q.Set(name, v)
		}
	}

	req, err := svc.ParseRequest(serverName, board, thread, q)
	if err != nil {
		return err
	}
	doc, err := svc.Feed(ctx, req)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(doc.Body)
	return err
}
