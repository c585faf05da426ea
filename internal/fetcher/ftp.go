package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/resilience"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
	Retry   resilience.RetryConfig
}

// FTPFetcher downloads files over FTP. Credentials come from the URL user
// info; anonymous login is used otherwise.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetcher", "ftp_retr")
	}
	return &FTPFetcher{opts: opts}
}

type ftpTarget struct {
	host, path, user, pass string
}

func parseFTPURL(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.New("ftp: empty path in url")
	}

	t := ftpTarget{host: u.Host, path: u.Path, user: "anonymous", pass: "anonymous@"}
	if _, _, splitErr := net.SplitHostPort(t.host); splitErr != nil {
		t.host = net.JoinHostPort(t.host, "21")
	}
	if u.User != nil {
		t.user = u.User.Username()
		t.pass, _ = u.User.Password()
	}
	return t, nil
}

// ftpConnReader closes the transfer and the control connection together.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "ftp: close response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "ftp: quit")
	}
	return nil
}

// Download connects, logs in and starts retrieving the file. The caller must
// close the reader to release the connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	t, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	return resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (io.ReadCloser, error) {
		zap.L().Debug("ftp: connecting", zap.String("host", t.host), zap.String("path", t.path))

		conn, err := ftp.Dial(t.host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "ftp: dial"), 0)
		}
		if err := conn.Login(t.user, t.pass); err != nil {
			_ = conn.Quit()
			return nil, eris.Wrap(err, "ftp: login")
		}
		resp, err := conn.Retr(t.path)
		if err != nil {
			_ = conn.Quit()
			return nil, eris.Wrap(err, "ftp: retrieve")
		}
		return &ftpConnReader{resp: resp, conn: conn}, nil
	})
}

// DownloadToFile downloads the FTP URL to a local file. Returns bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL string, path string) (int64, error) {
	rc, err := f.Download(ctx, ftpURL)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck

	return writeFile(path, rc)
}
