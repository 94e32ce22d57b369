package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/regro/metachannel/internal/config"
	"github.com/regro/metachannel/internal/httpapi"
	"github.com/regro/metachannel/pkg/artifactgraph"
	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/filter"
	"github.com/regro/metachannel/pkg/repodata"
	"github.com/regro/metachannel/pkg/store"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		debugViz   bool
		host       string
		port       int
		baseURL    string
		reload     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP proxy server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			progress := newProgress(loggerFromContext(ctx))

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyServeOverrides(cfg, host, port, baseURL)
			if debugViz {
				cfg.DebugViz = true
			}

			srv, err := c.buildServer(ctx, cfg, true)
			if err != nil {
				return err
			}
			progress.done("built artifact-graph engine")

			handler := newReloadableHandler(srv.Router())
			if reload {
				go c.watchConfigReload(ctx, configPath, host, port, baseURL, debugViz, handler)
			}

			addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
			httpServer := &http.Server{Addr: addr, Handler: handler}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Infof("listening on %s", addr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				c.Logger.Info("shutting down")
				return httpServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	cmd.Flags().BoolVar(&debugViz, "debug-viz", false, "enable the /debug/graph.svg endpoint")
	cmd.Flags().StringVar(&host, "host", "", "override the listen host from the config file")
	cmd.Flags().IntVar(&port, "port", 0, "override the listen port from the config file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "override the upstream base URL from the config file")
	cmd.Flags().BoolVar(&reload, "reload", false, "watch --config and rebuild the server on changes without dropping the listener")
	return cmd
}

// applyServeOverrides layers the serve command's flags on top of a loaded
// config, flags taking precedence. A zero flag value means "not set."
func applyServeOverrides(cfg *config.Config, host string, port int, baseURL string) {
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
}

// reloadableHandler lets the serve command swap the live router after a
// config change without closing the listening socket.
type reloadableHandler struct {
	current atomic.Value // http.Handler
}

func newReloadableHandler(h http.Handler) *reloadableHandler {
	rh := &reloadableHandler{}
	rh.store(h)
	return rh
}

func (rh *reloadableHandler) store(h http.Handler) {
	rh.current.Store(h)
}

func (rh *reloadableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rh.current.Load().(http.Handler).ServeHTTP(w, r)
}

// watchConfigReload rebuilds the server and swaps handler's route table
// whenever configPath changes on disk, until ctx is done. The warmer is
// never restarted here — only the request-serving engine reloads.
func (c *CLI) watchConfigReload(ctx context.Context, configPath, host string, port int, baseURL string, debugViz bool, handler *reloadableHandler) {
	if configPath == "" {
		c.Logger.Warn("--reload requested but no --config file to watch")
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.Logger.Errorf("reload watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(configPath); err != nil {
		c.Logger.Errorf("reload watcher: %v", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.Logger.Errorf("reload watcher: %v", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				c.Logger.Errorf("reload config: %v", err)
				continue
			}
			applyServeOverrides(cfg, host, port, baseURL)
			cfg.DebugViz = debugViz

			srv, err := c.buildServer(ctx, cfg, false)
			if err != nil {
				c.Logger.Errorf("reload rebuild: %v", err)
				continue
			}
			handler.store(srv.Router())
			c.Logger.Info("config reloaded")
		}
	}
}

// buildServer wires the fetch/cache/filter/graph stack into a routable
// httpapi.Server. When startWarmer is true and cfg.WarmTargets is set, it
// also launches the background cache warmer bound to ctx, so the warmer
// exits within one tick of ctx's cancellation; reload rebuilds pass false
// so a config change never spawns a second, orphaned warmer.
func (c *CLI) buildServer(ctx context.Context, cfg *config.Config, startWarmer bool) (*httpapi.Server, error) {
	fetcher := repodata.NewHTTPFetcher(cfg.BaseURL, nil)

	var rawCache cachestore.Cache[*repodata.RawRepoData]
	var derivedCache cachestore.Cache[*store.DerivedResult]
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rawCache = cachestore.NewRedisCache[*repodata.RawRepoData](client, rawRepoDataCodec{}, "metachannel:raw:")
		derivedCache = cachestore.NewRedisCache[*store.DerivedResult](client, derivedResultCodec{}, "metachannel:derived:")
	} else {
		rawCache = cachestore.NewMemoryCache[*repodata.RawRepoData](time.Minute)
		derivedCache = cachestore.NewMemoryCache[*store.DerivedResult](time.Minute)
	}
	raw := store.NewRawTier(rawCache, fetcher, cfg.RawTTL)

	blacklists := filter.NewFileBlacklistLoader(cfg.BlacklistDir)
	builder := artifactgraph.NewBuilder(raw, blacklists)

	derived := store.NewDerivedTier(derivedCache, builder, cfg.DerivedTTL)

	graph := artifactgraph.New(derived, cfg.SerializedTTL)

	if startWarmer && cfg.WarmTargets != "" {
		targets, err := config.LoadTargets(cfg.WarmTargets)
		if err != nil {
			return nil, fmt.Errorf("load warm targets: %w", err)
		}
		warmer := store.NewWarmer(raw, targets)
		warmer.Interval = cfg.WarmInterval
		warmer.Logger = c.Logger
		if sink, err := buildAuditSink(cfg); err == nil && sink != nil {
			warmer.Audit = sink
		}
		go warmer.Run(ctx)
	}

	return httpapi.New(graph, blacklists, c.Logger, cfg.DebugViz), nil
}
