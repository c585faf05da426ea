package refdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ecobuild/internal/fetcher"
)

// SyncTarget is one remote table to mirror into the data directory.
type SyncTarget struct {
	Table string // "cities" or "zones"
	URL   string
	File  string // destination file name inside the data directory
}

// SyncResult reports the outcome for one target.
type SyncResult struct {
	Table   string `json:"table"`
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Bytes   int64  `json:"bytes"`
	Rows    int    `json:"rows"`
}

// conditionalFetcher is implemented by fetchers that support ETags.
type conditionalFetcher interface {
	DownloadIfChanged(ctx context.Context, url, etag, path string) (string, bool, error)
}

// Syncer downloads reference tables and installs them once they parse.
type Syncer struct {
	Router  *fetcher.Router
	DataDir string
}

// Sync downloads every target concurrently. A target is installed only when
// the downloaded file parses as a valid table of its kind, so a bad upload
// upstream never replaces a good local copy.
func (s *Syncer) Sync(ctx context.Context, targets []SyncTarget) ([]SyncResult, error) {
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "refdata: sync: create data dir")
	}

	results := make([]SyncResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			res, err := s.syncOne(gctx, t)
			if err != nil {
				return eris.Wrapf(err, "refdata: sync %s", t.Table)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Syncer) syncOne(ctx context.Context, t SyncTarget) (SyncResult, error) {
	log := zap.L().With(zap.String("component", "refdata"), zap.String("table", t.Table), zap.String("url", t.URL))
	start := time.Now()

	dest := filepath.Join(s.DataDir, t.File)
	res := SyncResult{Table: t.Table, Path: dest}

	// The staging name keeps the extension so the parser can be chosen.
	staging := filepath.Join(s.DataDir, ".sync-"+t.File)
	defer os.Remove(staging) //nolint:errcheck

	f, err := s.Router.For(t.URL)
	if err != nil {
		return res, err
	}

	etagPath := dest + ".etag"
	var newETag string
	if cf, ok := f.(conditionalFetcher); ok {
		var changed bool
		newETag, changed, err = cf.DownloadIfChanged(ctx, t.URL, readETag(etagPath, dest), staging)
		if err != nil {
			return res, err
		}
		if !changed {
			log.Info("refdata: sync unchanged")
			return res, nil
		}
	} else if _, err := f.DownloadToFile(ctx, t.URL, staging); err != nil {
		return res, err
	}

	rows, err := validate(ctx, t.Table, staging)
	if err != nil {
		return res, eris.Wrap(err, "downloaded table rejected")
	}

	info, err := os.Stat(staging)
	if err != nil {
		return res, eris.Wrap(err, "stat download")
	}
	if err := os.Rename(staging, dest); err != nil {
		return res, eris.Wrap(err, "install download")
	}
	if newETag != "" {
		_ = os.WriteFile(etagPath, []byte(newETag), 0o644)
	} else {
		_ = os.Remove(etagPath)
	}

	res.Changed, res.Bytes, res.Rows = true, info.Size(), rows
	log.Info("refdata: sync installed",
		zap.Int64("bytes", res.Bytes),
		zap.Int("rows", rows),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// readETag returns the stored ETag, or "" when the table file itself is
// missing so the download is forced.
func readETag(etagPath, dest string) string {
	if _, err := os.Stat(dest); err != nil {
		return ""
	}
	b, err := os.ReadFile(etagPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func validate(ctx context.Context, table, path string) (int, error) {
	t, err := readTable(ctx, path, "")
	if err != nil {
		return 0, err
	}
	switch table {
	case "cities":
		c, err := CitiesFromTable(t)
		return len(c), err
	case "zones":
		z, err := ZonesFromTable(t)
		return len(z), err
	default:
		return 0, eris.Errorf("unknown table %q", table)
	}
}
