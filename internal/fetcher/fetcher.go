// Package fetcher downloads reference tables over HTTP(S) and FTP and parses
// CSV and XLSX tables into rows.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote file.
type Fetcher interface {
	// Download fetches the URL and returns the body. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Router picks a Fetcher by URL scheme.
type Router struct {
	HTTP Fetcher
	FTP  Fetcher
}

// For returns the fetcher that handles rawURL.
func (r *Router) For(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if r.HTTP != nil {
			return r.HTTP, nil
		}
	case "ftp":
		if r.FTP != nil {
			return r.FTP, nil
		}
	}
	return nil, eris.Errorf("fetcher: unsupported scheme %q in %s", u.Scheme, rawURL)
}

// writeFile streams body into path through a temp file in the same directory
// so a failed download never leaves a truncated table behind.
func writeFile(path string, body io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	n, err := io.Copy(tmp, body)
	if err != nil {
		_ = tmp.Close()
		return n, eris.Wrap(err, "fetcher: write file")
	}
	if err := tmp.Close(); err != nil {
		return n, eris.Wrap(err, "fetcher: close file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, eris.Wrap(err, "fetcher: rename file")
	}
	return n, nil
}
