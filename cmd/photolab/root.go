package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fjyeo/Open-Photo-Lab/internal/config"
	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
	"github.com/fjyeo/Open-Photo-Lab/internal/store"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	dbPath     string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "photolab",
		Short: "Photo catalog with on-demand thumbnails, previews and histograms",
		Long: `Photolab imports images into an in-memory catalog, loads full-resolution
previews on demand and computes RGB/luminance histograms.

The browse command drives the catalog from the keyboard; the other commands
run one operation and exit.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if flags.configPath != "" {
				os.Setenv(config.EnvConfigPath, flags.configPath)
			}
			if flags.debug {
				debug.EnableAll()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/photolab/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", store.DefaultPath(), "settings and export history database")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable all debug categories (debug builds only)")

	cmd.AddCommand(
		newInspectCmd(flags),
		newHistogramCmd(flags),
		newExportCmd(flags),
		newBrowseCmd(flags),
		newHistoryCmd(flags),
		newConfigCmd(),
	)
	return cmd
}

// loadConfig reads the config file, falling back to defaults on parse errors
func loadConfig(cmd *cobra.Command) *config.Manager {
	m := config.NewManager()
	if err := m.Load(); err != nil {
		log.Printf("Config: using defaults: %v", err)
	}
	if perr := m.ParseError(); perr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is invalid, using defaults: %v\n", m.Path(), perr)
	}
	return m
}
