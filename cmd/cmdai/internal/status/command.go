package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildcard/cmdai/cmd/cmdai/internal"
	"github.com/wildcard/cmdai/pkg/cache"
	"github.com/wildcard/cmdai/pkg/config"
	"github.com/wildcard/cmdai/pkg/execctx"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show cmdai status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return statusCmd(cmd)
		},
	}

	return cmd
}

func statusCmd(cmd *cobra.Command) error {
	cfg, err := internal.ResolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.InitLogging(cmd, cfg); err != nil {
		return err
	}

	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	fmt.Printf("Profile:      %s\n", path)
	fmt.Printf("Safety level: %s\n", cfg.General.SafetyLevel)
	if cfg.General.DefaultModel != "" {
		fmt.Printf("Model:        %s\n", cfg.General.DefaultModel)
	}

	c, err := cache.New(cache.Options{MaxSizeBytes: int64(cfg.Cache.MaxSizeGB) << 30})
	if err != nil {
		return err
	}
	stats := c.Stats()
	fmt.Printf("Cache:        %d models, %d bytes (%s)\n",
		stats.ModelCount, stats.TotalSizeBytes, stats.Dir)

	ctx, err := execctx.CaptureWithShell(cfg.General.DefaultShell)
	if err != nil {
		return err
	}
	fmt.Printf("Shell:        %s\n", ctx.Shell())
	fmt.Printf("Platform:     %s\n", ctx.Platform())
	fmt.Printf("User:         %s@%s\n", ctx.Username(), ctx.Hostname())
	return nil
}
