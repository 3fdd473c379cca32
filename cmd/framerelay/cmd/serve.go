package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/framerelay/internal/config"
	"github.com/teslashibe/framerelay/internal/log"
	"github.com/teslashibe/framerelay/pkg/frame"
	"github.com/teslashibe/framerelay/pkg/gemini"
	"github.com/teslashibe/framerelay/pkg/hub"
	"github.com/teslashibe/framerelay/pkg/relay"
)

var serveFlags struct {
	configPath    string
	host          string
	port          int
	staticDir     string
	bodyLimit     int
	logLevel      string
	debug         bool
	noGemini      bool
	progressEvery int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.configPath, "config", "c", "", "TOML config file")
	f.StringVar(&serveFlags.host, "host", config.DefaultHost, "listen host")
	f.IntVarP(&serveFlags.port, "port", "p", config.DefaultPort, "listen port")
	f.StringVar(&serveFlags.staticDir, "static", config.DefaultStaticDir, "directory served as static files (empty to disable)")
	f.IntVar(&serveFlags.bodyLimit, "body-limit", config.DefaultBodyLimit, "maximum request body in bytes")
	f.StringVar(&serveFlags.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	f.BoolVar(&serveFlags.debug, "debug", false, "log every request")
	f.BoolVar(&serveFlags.noGemini, "no-gemini", false, "disable the /api/gemini proxy")
	f.IntVar(&serveFlags.progressEvery, "progress-every", config.DefaultProgressEvery, "report progress every N frames (0 disables)")
}

// resolveConfig layers command-line flags that were set explicitly on top
// of file and environment configuration.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(serveFlags.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = serveFlags.host
	}
	if flags.Changed("port") {
		cfg.Port = serveFlags.port
	}
	if flags.Changed("static") {
		cfg.StaticDir = serveFlags.staticDir
	}
	if flags.Changed("body-limit") {
		cfg.BodyLimit = serveFlags.bodyLimit
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = serveFlags.logLevel
	}
	if flags.Changed("debug") {
		cfg.Debug = serveFlags.debug
	}
	if flags.Changed("progress-every") {
		cfg.ProgressEvery = serveFlags.progressEvery
	}
	if serveFlags.noGemini {
		cfg.Gemini.Enabled = false
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	status := hub.New("status", logger)
	store := frame.NewStore(frame.WithObserver(
		frame.EveryN(cfg.ProgressEvery, frame.Multi(
			frame.LogObserver(log.Component("frame")),
			status.Observer(),
		)),
	))

	opts := []relay.Option{
		relay.WithLogger(logger),
		relay.WithVersion(version),
		relay.WithStatusHub(status),
		relay.WithStaticDir(cfg.StaticDir),
		relay.WithBodyLimit(cfg.BodyLimit),
		relay.WithDebug(cfg.Debug),
	}

	if cfg.Gemini.Enabled {
		if cfg.Gemini.APIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set; /api/gemini calls will be rejected upstream")
		}
		proxy := gemini.New(
			gemini.WithBaseURL(cfg.Gemini.BaseURL),
			gemini.WithAPIKey(cfg.Gemini.APIKey),
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithTimeout(cfg.Gemini.Timeout),
			gemini.WithLogger(logger),
		)
		opts = append(opts, relay.WithProxy(proxy))
		logger.Info("gemini proxy enabled", "model", proxy.Model())
	}

	srv := relay.New(store, opts...)

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Addr()); err != nil {
		return err
	}
	logger.Info("goodbye", "frames", store.Stats())
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
