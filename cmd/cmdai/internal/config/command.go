package config

import (
	"fmt"
	"log/slog"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/wildcard/cmdai/cmd/cmdai/internal"
	appconfig "github.com/wildcard/cmdai/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and maintain the user profile",
		Example: `  cmdai config show
  cmdai config path
  cmdai config init
  cmdai config migrate`,
	}

	cmd.AddCommand(
		newShowCommand(),
		newPathCommand(),
		newInitCommand(),
		newMigrateCommand(),
	)

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file + env + flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.ResolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.InitLogging(cmd, cfg); err != nil {
				return err
			}
			out, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the profile location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.ResolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.InitLogging(cmd, cfg); err != nil {
				return err
			}
			path, err := appconfig.DefaultPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.ResolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.InitLogging(cmd, cfg); err != nil {
				return err
			}
			path, err := appconfig.DefaultPath()
			if err != nil {
				return err
			}
			if err := appconfig.Save(cfg, path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite deprecated profile keys to their replacements",
		Args:  cobra.NoArgs,
		Example: `  cmdai config migrate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := internal.ResolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.InitLogging(cmd, cfg); err != nil {
				return err
			}
			path, err := appconfig.DefaultPath()
			if err != nil {
				return err
			}
			changed, err := appconfig.MigrateFile(path, slog.Default())
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("Migrated %s\n", path)
			} else {
				fmt.Println("Nothing to migrate")
			}
			return nil
		},
	}
}
