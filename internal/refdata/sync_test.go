package refdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecobuild/internal/fetcher"
	"github.com/sells-group/ecobuild/internal/resilience"
)

func newTestSyncer(dir string) *Syncer {
	return &Syncer{
		Router: &fetcher.Router{HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout: 5 * time.Second,
			Retry:   resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond},
		})},
		DataDir: dir,
	}
}

func TestSync_InstallsAndHonoursETag(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		switch r.URL.Path {
		case "/cities.csv":
			w.Write([]byte(citiesCSV))
		case "/zones.csv":
			w.Write([]byte(zonesCSV))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := newTestSyncer(dir)
	targets := []SyncTarget{
		{Table: "cities", URL: srv.URL + "/cities.csv", File: "city_pollution_data.csv"},
		{Table: "zones", URL: srv.URL + "/zones.csv", File: "sensitive_zones.csv"},
	}

	results, err := s.Sync(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Changed)
	assert.Equal(t, 3, results[0].Rows)
	assert.Equal(t, 2, results[1].Rows)
	assert.Equal(t, filepath.Join(dir, "sensitive_zones.csv"), results[1].Path)

	etag, err := os.ReadFile(filepath.Join(dir, "city_pollution_data.csv.etag"))
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, string(etag))

	// The installed files load as a store.
	store := Load(context.Background(), &FileSource{
		CitiesPath: results[0].Path,
		ZonesPath:  results[1].Path,
	})
	assert.True(t, store.Available())

	results, err = s.Sync(context.Background(), targets)
	require.NoError(t, err)
	assert.False(t, results[0].Changed)
	assert.False(t, results[1].Changed)
	assert.Equal(t, int32(2), notModified.Load())
	assert.Equal(t, int32(4), hits.Load())
}

func TestSync_MissingFileForcesDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(zonesCSV))
	}))
	defer srv.Close()

	dir := t.TempDir()
	// A stale ETag sidecar without the table itself.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zones.csv.etag"), []byte(`"v1"`), 0o644))

	results, err := newTestSyncer(dir).Sync(context.Background(),
		[]SyncTarget{{Table: "zones", URL: srv.URL, File: "zones.csv"}})
	require.NoError(t, err)
	assert.True(t, results[0].Changed)
	assert.FileExists(t, filepath.Join(dir, "zones.csv"))
}

func TestSync_RejectsInvalidTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "city_pollution_data.csv")
	require.NoError(t, os.WriteFile(dest, []byte(citiesCSV), 0o644))

	_, err := newTestSyncer(dir).Sync(context.Background(),
		[]SyncTarget{{Table: "cities", URL: srv.URL, File: "city_pollution_data.csv"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downloaded table rejected")

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, citiesCSV, string(b), "existing table is kept")
	assert.NoFileExists(t, filepath.Join(dir, ".sync-city_pollution_data.csv"))
}

func TestSync_UnsupportedScheme(t *testing.T) {
	_, err := newTestSyncer(t.TempDir()).Sync(context.Background(),
		[]SyncTarget{{Table: "cities", URL: "s3://bucket/cities.csv", File: "cities.csv"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}
