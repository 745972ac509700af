// cmdai - natural-language shell command assistant
//
// This binary wires the core subsystems together: configuration,
// logging, the model cache, and execution-context capture.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wildcard/cmdai/cmd/cmdai/internal"
	cachecmd "github.com/wildcard/cmdai/cmd/cmdai/internal/cache"
	configcmd "github.com/wildcard/cmdai/cmd/cmdai/internal/config"
	"github.com/wildcard/cmdai/cmd/cmdai/internal/contextcmd"
	"github.com/wildcard/cmdai/cmd/cmdai/internal/status"
	"github.com/wildcard/cmdai/cmd/cmdai/internal/version"
	"github.com/wildcard/cmdai/pkg/logger"
)

func NewCmdaiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cmdai",
		Short:   "cmdai - turn natural language into shell commands",
		Example: "cmdai status",
	}

	internal.RegisterGlobalFlags(cmd)

	cmd.AddCommand(
		cachecmd.NewCacheCommand(),
		configcmd.NewConfigCommand(),
		contextcmd.NewContextCommand(),
		status.NewStatusCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewCmdaiCommand()
	err := cmd.Execute()
	logger.Flush()
	if err != nil {
		os.Exit(1)
	}
}
