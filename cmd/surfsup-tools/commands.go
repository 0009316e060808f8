package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"surfsup-server/internal/dataset"
	"surfsup-server/internal/migrate"
)

const defaultDBPath = "Resources/hawaii.sqlite"

type rootOptions struct {
	dbPath  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "surfsup-tools",
		Short:        "Build and load the climate dataset",
		Long:         "Dataset tooling for the surfsup API: create the schema and import the Hawaii CSV exports.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	dbDefault := os.Getenv("SQLITE_PATH")
	if dbDefault == "" {
		dbDefault = defaultDBPath
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", dbDefault, "SQLite database file (env SQLITE_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newMigrateCmd(opts), newImportCmd(opts))
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := runMigrate(cmd, opts.dbPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migrations applied\n", applied)
			return nil
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var stationsPath, measurementsPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import station and measurement CSV files",
		Long: `Import the station and measurement CSV exports in one transaction.
Pending migrations are applied first.

Examples:
  surfsup-tools import --stations Resources/hawaii_stations.csv --measurements Resources/hawaii_measurements.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stationsPath == "" && measurementsPath == "" {
				return fmt.Errorf("at least one of --stations or --measurements is required")
			}
			if _, err := runMigrate(cmd, opts.dbPath); err != nil {
				return err
			}

			db, err := dataset.Open(opts.dbPath)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := sqlDB.Close(); closeErr != nil {
					slog.Error("db close", "err", closeErr)
				}
			}()

			stations, closeStations, err := openOptional(stationsPath)
			if err != nil {
				return err
			}
			defer closeStations()
			measurements, closeMeasurements, err := openOptional(measurementsPath)
			if err != nil {
				return err
			}
			defer closeMeasurements()

			res, err := dataset.Import(cmd.Context(), db, stations, measurements)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d stations, %d measurements\n", res.Stations, res.Measurements)
			return nil
		},
	}
	cmd.Flags().StringVar(&stationsPath, "stations", "", "stations CSV (station,name,latitude,longitude,elevation)")
	cmd.Flags().StringVar(&measurementsPath, "measurements", "", "measurements CSV (station,date,prcp,tobs)")
	return cmd
}

func runMigrate(cmd *cobra.Command, dbPath string) (int, error) {
	dbPath = filepath.Clean(dbPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return 0, fmt.Errorf("create database directory: %w", err)
	}
	db, err := dataset.Open(dbPath)
	if err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()
	return migrate.Run(cmd.Context(), sqlDB)
}

// openOptional opens path for reading; an empty path yields a nil reader.
func openOptional(path string) (io.Reader, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
