package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/puzzli/assets"
	"github.com/robalobadob/puzzli/internal/exercises"
	"github.com/robalobadob/puzzli/internal/httpserver"
	"github.com/robalobadob/puzzli/internal/sqldb"
	"github.com/robalobadob/puzzli/internal/store"
)

var (
	servePort   string
	sessionTTL  time.Duration
	sweepPeriod time.Duration
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server. The database is migrated on start.

Examples:
  puzzli serve
  puzzli serve --port 8080 --session-ttl 1h`,
		RunE: runServe,
	}
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides PORT)")
	serveCmd.Flags().DurationVar(&sessionTTL, "session-ttl", 6*time.Hour, "Drop games idle for longer than this")
	serveCmd.Flags().DurationVar(&sweepPeriod, "sweep", 10*time.Minute, "How often idle games are dropped")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	db, err := sqldb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := sqldb.Migrate(cmd.Context(), db, assets.Migrations()); err != nil {
		return err
	}

	cat, err := exercises.Load(cfg.ExercisesDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	go sweep(ctx, mem)

	srv := httpserver.New(cfg, mem, db, cat)
	log.Info().Str("port", cfg.Port).Int("exercises", cat.Len()).Msg("starting puzzli")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// sweep evicts idle games until ctx ends.
func sweep(ctx context.Context, mem *store.Memory) {
	t := time.NewTicker(sweepPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := mem.Sweep(sessionTTL); n > 0 {
				log.Debug().Int("dropped", n).Int("live", mem.Len()).Msg("swept idle games")
			}
		}
	}
}
