package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"cms-panel/internal/config"
)

const configFlag = "config"

var commonFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "configs/config.yaml",
		Usage: "Path to the YAML configuration file (missing file means defaults plus environment)",
	},
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "cms-server",
		Short: "CMS admin API server",
		Long: `Backend for the CMS admin panel: authentication, users, blog posts,
pages, media uploads, clients and site settings over a JSON API.

Running without a subcommand is the same as "serve".`,
		SilenceUsage: true,
		RunE:         serveCommand,
	}
	cobraflags.RegisterMap(rootCmd, commonFlags)

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config and applies environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(commonFlags[configFlag].GetString())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
