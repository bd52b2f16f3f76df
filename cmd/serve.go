package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/loadergen/config"
	"github.com/benn-herrera/loadergen/gen"
	"github.com/benn-herrera/loadergen/index"
	"github.com/benn-herrera/loadergen/logger"
	"github.com/benn-herrera/loadergen/packager"
	"github.com/benn-herrera/loadergen/pipeline"
	"github.com/benn-herrera/loadergen/registry"
	"github.com/benn-herrera/loadergen/server"
	"github.com/benn-herrera/loadergen/workspace"
)

const (
	watchDebounce   = 250 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

var (
	serveAddr    string
	serveWorkDir string
	serveWatch   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP generation service",
	Long: `Runs the HTTP generation service. Settings come from LOADERGEN_* environment
variables; flags given on the command line override them.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (LOADERGEN_SERVER_ADDRESS)")
	serveCmd.Flags().StringVar(&serveWorkDir, "work-dir", "", "Deliverable root directory (LOADERGEN_WORK_DIR)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload specifications when files change (LOADERGEN_WATCH_SPECS)")
	rootCmd.AddCommand(serveCmd)
}

func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.ServerAddress = serveAddr
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = serveWorkDir
	}
	if flags.Changed("watch") {
		cfg.WatchSpecs = serveWatch
	}
	if cmd.Flags().Changed("specs") {
		cfg.SpecDir = specDir
	}
	if cfg.Version == "dev" {
		cfg.Version = Version
	}
	return cfg, nil
}

func serveLogger(cfg *config.Config) (*slog.Logger, error) {
	lc := logger.DefaultConfig()
	lc.Format = cfg.LogFormat
	if level, ok := flagLevel(); ok {
		lc.Level = level
	} else {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		lc.Level = level
	}
	return logger.Init(lc), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}
	log, err := serveLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.LoadDir(cfg.SpecDir)
	if err != nil {
		return err
	}
	specs := registry.NewHolder(reg)
	log.Info("specifications loaded", "dir", cfg.SpecDir, "specifications", reg.Names())
	if cfg.WatchSpecs {
		go func() {
			if err := registry.Watch(ctx, cfg.SpecDir, specs, watchDebounce, logger.ForComponent("registry")); err != nil {
				log.Error("specification watcher stopped", "error", err)
			}
		}()
	}

	work, err := workspace.New(cfg.WorkDir)
	if err != nil {
		return err
	}
	go work.RunSweeper(ctx, cfg.SweepInterval, cfg.DeliverableTTL, logger.ForComponent("workspace"))

	backends := gen.Builtin()
	opts := []pipeline.Option{pipeline.WithLogger(logger.ForComponent("pipeline"))}
	deps := server.Deps{
		Specs:        specs,
		Backends:     backends,
		Deliverables: work,
		Version:      cfg.Version,
		Log:          logger.ForComponent("server"),
	}

	if cfg.IndexEnabled() {
		store, err := index.Open(cfg.IndexPath)
		if err != nil {
			return err
		}
		defer store.Close()
		go pruneIndex(ctx, store, cfg.SweepInterval, cfg.DeliverableTTL, logger.ForComponent("index"))
		opts = append(opts, pipeline.WithIndex(store))
		deps.Index = store
	}

	if cfg.PublishingEnabled() {
		pub, err := packager.NewMinioPublisher(packager.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			return fmt.Errorf("configuring object storage: %w", err)
		}
		opts = append(opts, pipeline.WithPublisher(pub))
		log.Info("publishing archives", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}

	deps.Pipeline = pipeline.New(specs, backends, work, opts...)
	srv := server.New(cfg.ServerAddress, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}

// pruneIndex drops index entries whose deliverables the sweeper has reclaimed.
func pruneIndex(ctx context.Context, store *index.Store, interval, maxAge time.Duration, log *slog.Logger) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteBefore(ctx, time.Now().Add(-maxAge))
			if err != nil {
				log.Warn("index prune failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("index entries pruned", "count", n)
			}
		}
	}
}
