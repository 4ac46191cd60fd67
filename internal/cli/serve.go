package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/doublediamond/pkg/cache"
	"github.com/matzehuels/doublediamond/pkg/observability"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
	"github.com/matzehuels/doublediamond/pkg/server"
)

// redisURLEnv names the environment variable read when --redis is not set.
const redisURLEnv = "DOUBLEDIAMOND_REDIS_URL"

type serveOpts struct {
	source   configSource
	addr     string
	redisURL string
	prefix   string
	noCache  bool
}

// serveCommand hosts the live-preview page and the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: "localhost:8080", prefix: appName + ":v1:"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live-preview page and HTTP API",
		Long: `Serve the Double Diamond generator over HTTP.

The page at / renders the form and an inline preview that updates on every
input; the reset link restores the defaults, which come from --config and
--set. Rendered artifacts are cached in Redis when --redis (or
` + redisURLEnv + `) is set, otherwise in the local cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.redisURL == "" {
				opts.redisURL = os.Getenv(redisURLEnv)
			}
			return c.runServe(cmd.Context(), &opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for a shared artifact cache (redis://host:6379/0)")
	cmd.Flags().StringVar(&opts.prefix, "key-prefix", opts.prefix, "prefix for Redis cache keys")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	defaults, err := opts.source.load()
	if err != nil {
		return err
	}

	store, backend, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if _, ok := store.(*cache.RedisCache); ok {
		keyer = cache.NewScopedKeyer(nil, opts.prefix)
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	defer runner.Close()

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetServerHooks(hooks)
	defer observability.Reset()

	printSuccess("Serving Double Diamond generator")
	printKeyValue("URL", StyleLink.Render("http://"+opts.addr+"/"))
	printKeyValue("Cache", backend)

	srv := server.New(runner, c.Logger, server.WithDefaults(defaults))
	return srv.ListenAndServe(ctx, opts.addr)
}

// serveCache picks the artifact cache: Redis when configured, else the
// local file cache.
func (c *CLI) serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, string, error) {
	switch {
	case opts.noCache:
		return cache.NewNullCache(), "disabled", nil
	case opts.redisURL != "":
		rc, err := cache.NewRedisCache(ctx, opts.redisURL)
		if err != nil {
			return nil, "", err
		}
		return rc, "redis", nil
	}
	store, err := newCache(false)
	if err != nil {
		return nil, "", err
	}
	if fc, ok := store.(*cache.FileCache); ok {
		return fc, fc.Dir(), nil
	}
	return store, "disabled", nil
}
