package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robalobadob/puzzli/assets"
	"github.com/robalobadob/puzzli/internal/exercises"
	"github.com/robalobadob/puzzli/internal/puzzle"
	"github.com/robalobadob/puzzli/internal/sqldb"
)

var (
	exercisesDir string
	fromDB       bool
	exportOut    string
)

func init() {
	exCmd := &cobra.Command{
		Use:   "exercises",
		Short: "Inspect, check and export exercise files",
	}
	addDirFlag(exCmd.PersistentFlags())
	exCmd.PersistentFlags().BoolVar(&fromDB, "db", false, "Use authored exercises from the database instead")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := loadExercises(cmd.Context())
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), list)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate exercise files",
		Long: `Validate exercise files. Every file is checked; the command fails if any
of them is invalid.

Examples:
  puzzli exercises check my-exercises/*.hujson`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkFiles(cmd.OutOrStdout(), args)
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write exercises as files, one per exercise",
		Long: `Write exercises as files, one per exercise, named <id>.hujson.
Existing files are replaced atomically.

Examples:
  puzzli exercises export -o ./exercises
  puzzli exercises export --db -o ./authored`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := loadExercises(cmd.Context())
			if err != nil {
				return err
			}
			return exportAll(exportOut, list)
		},
	}
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", ".", "Output directory")

	importCmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Store exercise files in the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importFiles(cmd.Context(), args)
		},
	}

	exCmd.AddCommand(listCmd, checkCmd, exportCmd, importCmd)
	rootCmd.AddCommand(exCmd)
}

// addDirFlag registers --dir on fs.
func addDirFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&exercisesDir, "dir", "d", "", "Exercise directory (default: EXERCISES_DIR, else built-in)")
}

// loadExercises reads the selected source: the database with --db, otherwise
// the directory catalog.
func loadExercises(ctx context.Context) ([]puzzle.Exercise, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !fromDB {
		dir := exercisesDir
		if dir == "" {
			dir = cfg.ExercisesDir
		}
		cat, err := exercises.Load(dir)
		if err != nil {
			return nil, err
		}
		out := make([]puzzle.Exercise, cat.Len())
		for i := range out {
			out[i] = cat.At(i)
		}
		return out, nil
	}

	db, err := sqldb.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if _, err := sqldb.Migrate(ctx, db, assets.Migrations()); err != nil {
		return nil, err
	}
	repo := exercises.NewRepo(db)
	sums, err := repo.List(ctx, 1000)
	if err != nil {
		return nil, err
	}
	var out []puzzle.Exercise
	for _, s := range sums {
		ex, err := repo.Get(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

func printSummaries(w io.Writer, list []puzzle.Exercise) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tPIECES\tLINKS\tTASK")
	for _, ex := range list {
		s := exercises.Summarize(ex)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.Type, s.Pieces, s.Links, s.Task)
	}
	return tw.Flush()
}

func checkFiles(w io.Writer, paths []string) error {
	var errs []error
	for _, p := range paths {
		ex, err := exercises.LoadFile(p)
		if err != nil {
			fmt.Fprintf(w, "FAIL  %v\n", err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "ok    %s (%s, %d pieces, %d links)\n", p, ex.ID, len(ex.Pieces), len(ex.Solution))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d files invalid", len(errs), len(paths))
	}
	return nil
}

func exportAll(dir string, list []puzzle.Exercise) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, ex := range list {
		path := filepath.Join(dir, ex.ID+".hujson")
		if err := exercises.SaveFile(path, ex); err != nil {
			return err
		}
		log.Info().Str("file", path).Msg("exported")
	}
	return nil
}

func importFiles(ctx context.Context, paths []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := sqldb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := sqldb.Migrate(ctx, db, assets.Migrations()); err != nil {
		return err
	}
	repo := exercises.NewRepo(db)
	var errs []error
	for _, p := range paths {
		ex, err := exercises.LoadFile(p)
		if err == nil {
			err = repo.Save(ctx, ex, "")
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info().Str("exercise", ex.ID).Msg("imported")
	}
	return errors.Join(errs...)
}
