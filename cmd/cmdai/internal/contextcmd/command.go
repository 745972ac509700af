package contextcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildcard/cmdai/cmd/cmdai/internal"
	"github.com/wildcard/cmdai/pkg/execctx"
)

func NewContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print the captured execution context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.ResolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.InitLogging(cmd, cfg); err != nil {
				return err
			}
			ctx, err := execctx.CaptureWithShell(cfg.General.DefaultShell)
			if err != nil {
				return err
			}
			fmt.Println(ctx.ToPromptContext())
			return nil
		},
	}
}
