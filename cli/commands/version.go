package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/cli/internal/ui"
	"github.com/satishbabariya/sqlkit/cli/internal/version"
	"github.com/satishbabariya/sqlkit/runtime/client"
)

func newVersionCommand(opts *globalOptions) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the CLI build and, unless --offline is set, the SQLite engine version and the native column statements it supports.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if v, err := info.Semver(); err != nil {
				ui.PrintWarning("build version %q is not a semantic version", info.Version)
			} else if v.Prerelease() != "" {
				ui.PrintWarning("sqlkit %s is a pre-release build", v)
			}
			if offline {
				fmt.Fprintln(ui.Output, info.FullString())
				return nil
			}

			ctx := cmd.Context()
			return opts.withClient(ctx, func(c *client.Client) error {
				features, err := c.EngineFeatures(ctx)
				if err != nil {
					return err
				}
				engine, err := c.EngineVersion(ctx)
				if err != nil {
					return err
				}
				info.Engine = engine.String()
				fmt.Fprintln(ui.Output, info.FullString())

				for _, f := range features {
					if f.Available {
						ui.PrintSuccess("%s is native", f.Name)
					} else {
						ui.PrintWarning("%s needs SQLite %s, column changes will rebuild tables", f.Name, f.Minimum)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Do not open the database")
	return cmd
}
