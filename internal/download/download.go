// Copyright (c) 2026 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package download retrieves remote boot media over HTTP(S) and FTP.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	humanize "github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	defaultConnectTimeout             = 10 * time.Second
	filePerm              os.FileMode = 0o644
)

var (
	// ErrUnexpectedStatus is returned when an HTTP server does not answer
	// with 200 OK.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrUnsupportedScheme is returned for URLs that are neither
	// http, https nor ftp.
	ErrUnsupportedScheme = errors.New("unsupported download scheme")
)

// Options configure a Downloader.
type Options struct {
	// ConnectTimeout bounds establishing the connection to the server.
	ConnectTimeout time.Duration
	// VerifyServerCert enables TLS server certificate verification.
	VerifyServerCert bool
	// RetryTimeout bounds the time spent retrying transient failures.
	// Zero disables retries.
	RetryTimeout time.Duration
}

// statusError is an unexpected HTTP status code.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return ErrUnexpectedStatus.Error() + ": " + e.status
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Downloader fetches a URL into a local file. Data is streamed into a
// temporary file next to the destination which is renamed on success,
// so an interrupted download never leaves a truncated file behind.
type Downloader struct {
	fs           afero.Fs
	http         *httpFetcher
	ftp          *ftpFetcher
	retryTimeout time.Duration
}

// New returns a Downloader writing to fs.
func New(fs afero.Fs, opts Options) *Downloader {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	return &Downloader{
		fs:           fs,
		http:         newHTTPFetcher(opts),
		ftp:          newFTPFetcher(opts),
		retryTimeout: opts.RetryTimeout,
	}
}

type fetcher interface {
	fetch(ctx context.Context, src *url.URL) (io.ReadCloser, error)
}

// Download retrieves src into dst. The parent directory of dst must exist.
//
//nolint:nonamedreturns // named return is needed for cleanup
func (d *Downloader) Download(ctx context.Context, src *url.URL, dst string) (err error) {
	var f fetcher

	switch src.Scheme {
	case "http", "https":
		f = d.http
	case "ftp":
		f = d.ftp
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, src.Scheme)
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()

	body, err := d.open(ctx, f, src)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", src.Redacted(), err)
	}

	//nolint:errcheck // read-only stream, nothing to report
	defer body.Close()

	tf, err := afero.TempFile(d.fs, filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return err
	}

	tname := tf.Name()

	defer func() {
		if err != nil {
			//nolint:errcheck,gosec // we already return a more important error
			tf.Close()
			//nolint:errcheck,gosec // we already return a more important error
			d.fs.Remove(tname)
		}
	}()

	n, err := io.Copy(tf, body)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", src.Redacted(), err)
	}

	if err := d.fs.Chmod(tname, filePerm); err != nil {
		return err
	}

	if err := tf.Close(); err != nil {
		return err
	}

	if err := d.fs.Rename(tname, dst); err != nil {
		return err
	}

	logger.Debug().Str("source", src.Redacted()).Str("destination", dst).
		Str("size", humanize.Bytes(uint64(n))).Dur("took", time.Since(start)).
		Msg("TFTP: boot file downloaded")

	return nil
}

// open starts the transfer of src, retrying transient failures with
// exponential backoff. Client errors (4xx) are not retried.
func (d *Downloader) open(ctx context.Context, f fetcher, src *url.URL) (io.ReadCloser, error) {
	if d.retryTimeout <= 0 {
		return f.fetch(ctx, src)
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = d.retryTimeout

	return backoff.RetryWithData(func() (io.ReadCloser, error) {
		body, err := f.fetch(ctx, src)
		if err != nil {
			var status *statusError
			if errors.As(err, &status) && status.code < 500 {
				return nil, backoff.Permanent(err)
			}

			zerolog.Ctx(ctx).Debug().Err(err).Str("source", src.Redacted()).
				Msg("TFTP: boot file download failed, retrying")
		}

		return body, err
	}, backoff.WithContext(retry, ctx))
}
