package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/internal/config"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a .sqlkit.yaml and .env.example",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			configPath := filepath.Join(dir, ".sqlkit.yaml")
			if _, err := config.AppFs.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := &config.Config{
				DatabaseURL: opts.cfg.DatabaseURL,
				ForeignKeys: true,
				BusyTimeout: 5 * time.Second,
			}
			path, err := config.Save(cfg, dir)
			if err != nil {
				return err
			}
			ui.PrintSuccess("created %s", path)

			envExample := filepath.Join(dir, ".env.example")
			if _, err := config.AppFs.Stat(envExample); err != nil {
				content := "# Database file or go-sqlite3 DSN\nDATABASE_URL=" + cfg.DatabaseURL + "\n"
				if err := afero.WriteFile(config.AppFs, envExample, []byte(content), 0644); err != nil {
					ui.PrintWarning("failed to create .env.example: %v", err)
				} else {
					ui.PrintSuccess("created %s", envExample)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .sqlkit.yaml")
	return cmd
}
