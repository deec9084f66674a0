// Package cmd holds the puzzli command line: the HTTP server, database
// migrations, exercise tooling and a terminal player.
package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/puzzli/internal/config"
)

var (
	envFile string
	pretty  bool
)

var rootCmd = &cobra.Command{
	Use:   "puzzli",
	Short: "Grammar puzzle server and tools",
	Long: `puzzli serves sentence-building puzzles: words are puzzle pieces whose
tabs and blanks snap together when the grammar fits.

Examples:
  puzzli serve --port 8080
  puzzli exercises list
  puzzli play cat-eats-fish`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load(envFile)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable console logs")
}

// Execute runs the root command.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the environment and sets up the global logger from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return cfg, nil
}
