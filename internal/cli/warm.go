package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/regro/metachannel/internal/config"
	"github.com/regro/metachannel/pkg/cachestore"
	"github.com/regro/metachannel/pkg/repodata"
	"github.com/regro/metachannel/pkg/store"
)

func (c *CLI) warmCommand() *cobra.Command {
	var (
		configPath string
		targetPath string
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "run the cache warmer standalone, without serving HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if targetPath == "" {
				targetPath = cfg.WarmTargets
			}
			if targetPath == "" {
				return fmt.Errorf("no warm targets configured (pass --targets or set warm_targets in the config file)")
			}

			targets, err := config.LoadTargets(targetPath)
			if err != nil {
				return fmt.Errorf("load warm targets: %w", err)
			}

			fetcher := repodata.NewHTTPFetcher(cfg.BaseURL, nil)
			raw := store.NewRawTier(cachestore.NewMemoryCache[*repodata.RawRepoData](0), fetcher, cfg.RawTTL)

			warmer := store.NewWarmer(raw, targets)
			warmer.Interval = cfg.WarmInterval
			warmer.Logger = c.Logger
			if sink, err := buildAuditSink(cfg); err == nil && sink != nil {
				warmer.Audit = sink
			}

			c.Logger.Infof("warming %d target(s) every %s", len(targets), warmer.Interval)
			warmer.Run(cmd.Context())
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	cmd.Flags().StringVar(&targetPath, "targets", "", "path to a TOML warm-targets file")
	return cmd
}
