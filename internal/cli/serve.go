package cli

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/railsim/internal/archive"
	"github.com/matzehuels/railsim/internal/config"
	"github.com/matzehuels/railsim/internal/metrics"
	"github.com/matzehuels/railsim/internal/server"
	"github.com/matzehuels/railsim/pkg/buildinfo"
	"github.com/matzehuels/railsim/pkg/cache"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/observability"
	"github.com/matzehuels/railsim/pkg/pipeline"
)

// serveCommand creates the serve command. Settings come from RAILSIM_*
// environment variables; --addr overrides RAILSIM_ADDR.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve runs over HTTP",
		Long: `Serve runs over HTTP until interrupted.

Environment:
  RAILSIM_ADDR              listen address (default :8080)
  RAILSIM_REDIS_URL         cache results in Redis
  RAILSIM_CACHE_PREFIX      prefix for Redis keys
  RAILSIM_MONGO_URI         archive runs in MongoDB instead of memory
  RAILSIM_MONGO_DB          MongoDB database (default railsim)
  RAILSIM_WORKERS           scheduler workers per run (default GOMAXPROCS)
  RAILSIM_LOG_LEVEL         debug, info, warn or error (default info)
  RAILSIM_SHUTDOWN_TIMEOUT  grace period for requests in flight (default 10s)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides RAILSIM_ADDR)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil && level < c.Logger.GetLevel() {
		c.SetLogLevel(level)
	}
	c.Logger.Info("starting server", "version", buildinfo.Version, "config", cfg.String())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.New(reg).Register()
	defer observability.Reset()

	rc, err := c.serverCache(ctx, cfg)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(rc, cache.NewScopedKeyer(nil, cfg.CachePrefix), c.Logger)
	defer runner.Close()

	arch, err := c.serverArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := arch.Close(context.Background()); err != nil {
			c.Logger.Warn("closing archive", "err", err)
		}
	}()

	srv := server.New(server.Config{
		Runner:   runner,
		Archive:  arch,
		Logger:   c.Logger,
		Gatherer: reg,
		Workers:  cfg.Workers,
	})
	return srv.ListenAndServe(ctx, cfg.Addr, cfg.ShutdownTimeout)
}

// serverCache connects to Redis, retrying while the server is unreachable.
func (c *CLI) serverCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisURL == "" {
		c.Logger.Info("result cache disabled")
		return cache.NewNullCache(), nil
	}
	var rc *cache.RedisCache
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		rc, err = cache.NewRedisCache(ctx, cfg.RedisURL)
		if stderrors.Is(err, cache.ErrNetwork) {
			c.Logger.Warn("redis unreachable, retrying", "err", err)
			return cache.Retryable(err)
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis")
	}
	c.Logger.Info("caching results in redis", "prefix", cfg.CachePrefix)
	return rc, nil
}

func (c *CLI) serverArchive(ctx context.Context, cfg *config.Config) (archive.Archive, error) {
	if cfg.MongoURI == "" {
		c.Logger.Info("archiving runs in memory")
		return archive.NewMemory(), nil
	}
	m, err := archive.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("archiving runs in mongodb", "database", cfg.MongoDB)
	return m, nil
}
