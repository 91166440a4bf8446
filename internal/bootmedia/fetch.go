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

// Package bootmedia fetches installation media (kernels, initrds) into
// the TFTP root.
package bootmedia

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"maas.io/core/src/maastftp/internal/pathutil"
)

var (
	// ErrPathEscape is returned when the destination would be outside
	// of the TFTP root.
	ErrPathEscape = errors.New("TFTP destination outside of tftproot")
	// ErrUnsupportedProtocol is returned for source URLs with a scheme
	// that cannot be fetched.
	ErrUnsupportedProtocol = errors.New("cannot fetch boot file, unknown protocol for medium source path")
	// ErrInvalidSource is returned for an empty or unparsable source URL,
	// or an empty destination.
	ErrInvalidSource = errors.New("invalid boot file source")
)

// Downloader retrieves src into the local file dst.
type Downloader interface {
	Download(ctx context.Context, src *url.URL, dst string) error
}

// Fetcher places remote boot files below the TFTP root. No combination
// of arguments can make it write outside of the root.
type Fetcher struct {
	root       string
	fs         afero.Fs
	downloader Downloader
	tracer     trace.Tracer
	fetches    metric.Int64Counter
}

// FetcherOption allows to set additional Fetcher options
type FetcherOption func(*Fetcher)

// WithTracer sets the tracer used to record fetch spans.
func WithTracer(tracer trace.Tracer) FetcherOption {
	return func(f *Fetcher) {
		f.tracer = tracer
	}
}

// WithMetricMeter allows to set OpenTelemetry metric.Meter
// to count fetched boot files.
func WithMetricMeter(meter metric.Meter) FetcherOption {
	return func(f *Fetcher) {
		counter, err := meter.Int64Counter("tftp.bootfile.fetches",
			metric.WithUnit("{file}"),
			metric.WithDescription("Boot files fetched into the TFTP root"))
		if err != nil {
			panic(err)
		}

		f.fetches = counter
	}
}

// NewFetcher returns a Fetcher writing below root on fs.
func NewFetcher(root string, fs afero.Fs, downloader Downloader, options ...FetcherOption) *Fetcher {
	f := &Fetcher{
		root:       filepath.Clean(root),
		fs:         fs,
		downloader: downloader,
		tracer:     tracenoop.NewTracerProvider().Tracer(""),
	}

	WithMetricMeter(noop.NewMeterProvider().Meter(""))(f)

	for _, opt := range options {
		opt(f)
	}

	return f
}

// Destination returns the absolute path src would be stored at for the
// destination prefix dst, along with the parsed source URL.
//
// When dst ends with a slash the last segment of src is stored inside
// that directory, otherwise it is appended to dst after a dash.
func (f *Fetcher) Destination(dst, src string) (string, *url.URL, error) {
	if dst == "" || src == "" {
		return "", nil, ErrInvalidSource
	}

	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSource, src)
	}

	name := sourceName(src)
	if name == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSource, src)
	}

	filename := dst + "-" + name
	if strings.HasSuffix(dst, "/") {
		filename = dst + name
	}

	destination := filepath.Clean(filename)
	if !filepath.IsAbs(destination) {
		destination = filepath.Join(f.root, filename)
	}

	if destination == f.root || !pathutil.Within(f.root, destination) {
		return "", nil, fmt.Errorf("%w: %s", ErrPathEscape, destination)
	}

	return destination, u, nil
}

// FetchBootFile downloads src below the TFTP root and returns the path
// it was stored at. Sources on NFS are expected to be mounted already
// and are not fetched.
//
//nolint:nonamedreturns // named return is needed for span status
func (f *Fetcher) FetchBootFile(ctx context.Context, dst, src string) (destination string, err error) {
	logger := zerolog.Ctx(ctx)

	ctx, span := f.tracer.Start(ctx, "tftp.fetch_boot_file",
		trace.WithAttributes(attribute.String("tftp.destination", dst)))

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	destination, u, err := f.Destination(dst, src)
	if err != nil {
		return "", err
	}

	span.SetAttributes(
		attribute.String("tftp.source", u.Redacted()),
		attribute.String("tftp.path", destination),
	)

	switch u.Scheme {
	case "http", "https", "ftp":
	case "nfs":
		logger.Debug().Str("source", u.Redacted()).
			Msg("TFTP: NFS as a protocol for installation medium detected")

		return destination, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProtocol, u.Redacted())
	}

	// The destination may contain sub directories.
	if err := f.fs.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %q: %w", destination, err)
	}

	logger.Debug().Str("source", u.Redacted()).Str("destination", destination).
		Msg("TFTP: fetching boot file")

	if err := f.downloader.Download(ctx, u, destination); err != nil {
		return "", err
	}

	f.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("scheme", u.Scheme)))

	return destination, nil
}

// sourceName returns the last path segment of src, ignoring trailing
// slashes, query and fragment.
func sourceName(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}

	src = strings.TrimRight(src, "/")

	return src[strings.LastIndex(src, "/")+1:]
}
