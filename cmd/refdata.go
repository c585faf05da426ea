package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/db"
	"github.com/sells-group/ecobuild/internal/fetcher"
	"github.com/sells-group/ecobuild/internal/refdata"
	"github.com/sells-group/ecobuild/internal/resilience"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Manage the city pollution and sensitive-zone tables",
}

var refdataStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the reference tables load and how many rows they hold",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := refdata.OpenStore(cmd.Context(), cfg.RefData)
		return writeJSON(cmd.OutOrStdout(), refdataStatus(cfg.RefData.Source, store))
	},
}

var refdataImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the table files in the data directory into SQLite or Postgres",
	Long: `Reads the configured cities and zones files (CSV, XLSX or shapefile) and
replaces the reference tables in the target database. Nothing is written
unless both files parse.

Examples:
  refdata import --to sqlite
  ECOBUILD_REFDATA_DATABASE_URL=postgres://... refdata import --to postgres`,
	RunE: runRefdataImport,
}

var refdataSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the reference tables from their configured URLs",
	RunE:  runRefdataSync,
}

func init() {
	refdataImportCmd.Flags().String("to", "sqlite", "import target: sqlite or postgres")

	refdataCmd.AddCommand(refdataStatusCmd, refdataImportCmd, refdataSyncCmd)
	rootCmd.AddCommand(refdataCmd)
}

type storeStatus struct {
	Source    string `json:"source"`
	Available bool   `json:"available"`
	Cities    int    `json:"cities"`
	Zones     int    `json:"zones"`
}

func refdataStatus(source string, store refdata.Store) storeStatus {
	st := storeStatus{
		Source:    source,
		Available: store.Available(),
		Zones:     len(store.SensitiveZones()),
	}
	if snap, ok := store.(*refdata.Snapshot); ok {
		st.Cities = len(snap.Cities())
	}
	return st
}

func runRefdataImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	to, _ := cmd.Flags().GetString("to")
	target := *cfg
	target.RefData.Source = to
	if to != "sqlite" && to != "postgres" {
		return eris.Errorf("refdata import: --to must be sqlite or postgres (got %q)", to)
	}
	if err := target.Validate("import"); err != nil {
		return err
	}

	var dst refdata.Writer
	switch to {
	case "sqlite":
		s, err := refdata.OpenSQLite(cfg.RefData.SQLitePath)
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck
		dst = s
	case "postgres":
		pool, err := db.Connect(ctx, cfg.RefData.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "refdata import")
		}
		defer pool.Close()
		dst = refdata.NewPostgres(pool)
	}

	start := time.Now()
	stats, err := refdata.Import(ctx, refdata.Files(cfg.RefData), dst)
	if err != nil {
		return err
	}

	zap.L().Info("refdata import complete",
		zap.String("target", to),
		zap.Int64("cities", stats.Cities),
		zap.Int("duplicate_cities", stats.DuplicateCities),
		zap.Int64("zones", stats.Zones),
		zap.Duration("elapsed", time.Since(start)),
	)
	return writeJSON(cmd.OutOrStdout(), stats)
}

func runRefdataSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("sync"); err != nil {
		return err
	}

	sc := cfg.RefData.Sync
	timeout := time.Duration(sc.TimeoutSecs) * time.Second
	retry := resilience.FromRetryConfig(sc.Retry)

	syncer := &refdata.Syncer{
		Router: &fetcher.Router{
			HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:     sc.UserAgent,
				Timeout:       timeout,
				RatePerSecond: sc.RatePerSecond,
				Burst:         sc.Burst,
				Retry:         retry,
			}),
			FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout, Retry: retry}),
		},
		DataDir: cfg.RefData.DataDir,
	}

	results, err := syncer.Sync(ctx, refdata.SyncTargets(cfg.RefData))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), results)
}
