package cache

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildcard/cmdai/cmd/cmdai/internal"
	"github.com/wildcard/cmdai/pkg/cache"
	"github.com/wildcard/cmdai/pkg/logger"
)

const defaultHubURL = "https://models.cmdai.dev"

func NewCacheCommand() *cobra.Command {
	var (
		dir    string
		hubURL string
	)

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local model cache",
		Example: `  cmdai cache stats
  cmdai cache pull acme/tiny
  cmdai cache verify
  cmdai cache clear`,
	}

	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Cache directory (default: platform cache dir)")
	cmd.PersistentFlags().StringVar(&hubURL, "hub", defaultHubURL, "Model host base URL")

	cmd.AddCommand(
		newStatsCommand(&dir),
		newPullCommand(&dir, &hubURL),
		newRemoveCommand(&dir),
		newClearCommand(&dir),
		newVerifyCommand(&dir),
	)

	return cmd
}

// openCache builds a cache from the effective configuration and the
// command's flags, initializing logging first.
func openCache(cmd *cobra.Command, dir, hubURL string) (*cache.Cache, error) {
	cfg, err := internal.ResolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := internal.InitLogging(cmd, cfg); err != nil {
		return nil, err
	}

	opts := cache.Options{
		Dir:          dir,
		MaxSizeBytes: int64(cfg.Cache.MaxSizeGB) << 30,
		Logger:       logger.For("cache"),
	}
	if hubURL != "" {
		opts.Fetcher = cache.NewHubFetcher(hubURL, nil)
	}
	return cache.New(opts)
}

func newStatsCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd, *dir, "")
			if err != nil {
				return err
			}
			stats := c.Stats()
			fmt.Printf("Directory: %s\n", stats.Dir)
			fmt.Printf("Models:    %d\n", stats.ModelCount)
			fmt.Printf("Size:      %s of %s\n",
				formatBytes(stats.TotalSizeBytes), formatBytes(stats.MaxSizeBytes))
			return nil
		},
	}
}

func newPullCommand(dir, hubURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <model-id>",
		Short: "Download a model into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, *dir, *hubURL)
			if err != nil {
				return err
			}

			op := logger.StartOperation("cache_pull")
			defer op.Close()
			op.Field("model_id", args[0])

			path, err := c.GetModel(cmd.Context(), args[0])
			if err != nil {
				op.Error(err)
				return err
			}
			op.Success()
			fmt.Println(path)
			return nil
		},
	}
}

func newRemoveCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <model-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a model from the cache",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, *dir, "")
			if err != nil {
				return err
			}
			if err := c.RemoveModel(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		},
	}
}

func newClearCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd, *dir, "")
			if err != nil {
				return err
			}
			if err := c.ClearCache(); err != nil {
				return err
			}
			fmt.Println("Cache cleared")
			return nil
		},
	}
}

func newVerifyCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-hash every cached model and report integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd, *dir, "")
			if err != nil {
				return err
			}
			report := c.ValidateIntegrity()
			for _, id := range report.Valid {
				fmt.Printf("ok       %s\n", id)
			}
			for _, id := range report.Corrupted {
				fmt.Printf("corrupt  %s\n", id)
			}
			for _, id := range report.Missing {
				fmt.Printf("missing  %s\n", id)
			}
			if len(report.Corrupted)+len(report.Missing) > 0 {
				return fmt.Errorf("%d of %d models failed verification",
					len(report.Corrupted)+len(report.Missing),
					len(report.Valid)+len(report.Corrupted)+len(report.Missing))
			}
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
