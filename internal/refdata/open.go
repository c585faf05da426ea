package refdata

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecobuild/internal/config"
	"github.com/sells-group/ecobuild/internal/db"
)

// Open returns the Source selected by cfg.Source and a func that releases
// it. Relative file names resolve against cfg.DataDir.
func Open(ctx context.Context, cfg config.RefDataConfig) (Source, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case "csv", "xlsx", "shapefile", "":
		return Files(cfg), noop, nil

	case "sqlite":
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, noop, eris.New("refdata: refdata.database_url is required for postgres")
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, eris.Wrap(err, "refdata: open postgres")
		}
		return NewPostgres(pool), pool.Close, nil

	default:
		return nil, noop, eris.Errorf("refdata: unknown source %q", cfg.Source)
	}
}

// OpenStore opens the configured source and loads it. Failure to open the
// source degrades the store the same way a failed read does.
func OpenStore(ctx context.Context, cfg config.RefDataConfig) Store {
	src, closeFn, err := Open(ctx, cfg)
	if err != nil {
		return degrade(err)
	}
	defer closeFn()
	return Load(ctx, src)
}

// Files returns the file source for the configured table files.
func Files(cfg config.RefDataConfig) *FileSource {
	return &FileSource{
		CitiesPath: dataPath(cfg.DataDir, cfg.CitiesFile),
		ZonesPath:  dataPath(cfg.DataDir, cfg.ZonesFile),
	}
}

func dataPath(dir, name string) string {
	if name == "" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// SyncTargets lists the remote tables configured under refdata.sync.
func SyncTargets(cfg config.RefDataConfig) []SyncTarget {
	var targets []SyncTarget
	if cfg.Sync.CitiesURL != "" {
		targets = append(targets, SyncTarget{Table: "cities", URL: cfg.Sync.CitiesURL, File: filepath.Base(cfg.CitiesFile)})
	}
	if cfg.Sync.ZonesURL != "" {
		targets = append(targets, SyncTarget{Table: "zones", URL: cfg.Sync.ZonesURL, File: filepath.Base(cfg.ZonesFile)})
	}
	return targets
}
