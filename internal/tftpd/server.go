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

// Package tftpd serves the TFTP root read-only. It lets a standalone
// deployment boot hosts straight from the files published by the pxe
// package.
package tftpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/pin/tftp/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	// ErrReadOnly is returned for every write request.
	ErrReadOnly = errors.New("this TFTP server is read-only")
	// ErrInvalidFilename is returned for requests that cannot name a
	// file below the root.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrFileTooLarge is returned for files above the configured limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Server is a read-only TFTP server over a root directory.
type Server struct {
	fs      afero.Fs
	server  *tftp.Server
	logger  zerolog.Logger
	maxSize int64

	requests metric.Int64Counter
	sent     metric.Int64Counter
}

// Option allows to set additional Server options
type Option func(*Server)

// WithLogger sets the logger used for transfer events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxFileSize refuses to serve files larger than size bytes.
func WithMaxFileSize(size int64) Option {
	return func(s *Server) {
		s.maxSize = size
	}
}

// WithTimeout sets the retransmission timeout of the TFTP server.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.server.SetTimeout(timeout)
		}
	}
}

// WithMetricMeter allows to set OpenTelemetry metric.Meter
// to collect request stats.
func WithMetricMeter(meter metric.Meter) Option {
	return func(s *Server) {
		var err error

		s.requests, err = meter.Int64Counter("tftp.requests",
			metric.WithUnit("{request}"),
			metric.WithDescription("TFTP read requests"))
		if err != nil {
			panic(err)
		}

		s.sent, err = meter.Int64Counter("tftp.sent",
			metric.WithUnit("byte"),
			metric.WithDescription("Bytes sent over TFTP"))
		if err != nil {
			panic(err)
		}
	}
}

// NewServer returns a Server serving files below root on fs.
func NewServer(fs afero.Fs, root string, options ...Option) *Server {
	s := &Server{
		fs:     afero.NewReadOnlyFs(afero.NewBasePathFs(fs, root)),
		logger: zerolog.Nop(),
	}

	s.server = tftp.NewServer(s.handleRead, s.handleWrite)

	WithMetricMeter(noop.NewMeterProvider().Meter(""))(s)

	for _, opt := range options {
		opt(s)
	}

	return s
}

// ListenAndServe serves addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.server.ListenAndServe(addr)
	}()

	s.logger.Info().Str("addr", addr).Msg("TFTP server listening")

	select {
	case <-ctx.Done():
		s.server.Shutdown()
		<-errCh

		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRead(filename string, rf io.ReaderFrom) error {
	ctx := context.Background()

	n, err := s.send(filename, rf)
	if err != nil {
		s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		s.logger.Debug().Err(err).Str("file", filename).Msg("TFTP read failed")

		return err
	}

	s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	s.sent.Add(ctx, n)

	return nil
}

func (s *Server) send(filename string, rf io.ReaderFrom) (int64, error) {
	clean, err := sanitizeFilename(filename)
	if err != nil {
		return 0, err
	}

	f, err := s.fs.Open(clean)
	if err != nil {
		return 0, err
	}

	//nolint:errcheck // read-only file
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrInvalidFilename, clean)
	}

	if s.maxSize > 0 && info.Size() > s.maxSize {
		return 0, fmt.Errorf("%w: %s", ErrFileTooLarge, clean)
	}

	event := s.logger.Debug().Str("file", clean).Int64("size", info.Size())

	if t, ok := rf.(tftp.OutgoingTransfer); ok {
		t.SetSize(info.Size())

		raddr := t.RemoteAddr()
		event = event.Str("remote", raddr.String())
	}

	event.Msg("TFTP read")

	return rf.ReadFrom(f)
}

func (s *Server) handleWrite(filename string, _ io.WriterTo) error {
	s.requests.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", "refused")))
	s.logger.Debug().Str("file", filename).Msg("TFTP write refused")

	return ErrReadOnly
}

// sanitizeFilename returns filename relative to the root. Clients send
// both "/pxelinux.cfg/default" and "pxelinux.cfg/default".
func sanitizeFilename(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if strings.Contains(filename, "\\") {
		return "", fmt.Errorf("%w: invalid path separator", ErrInvalidFilename)
	}

	clean := strings.TrimPrefix(path.Clean("/"+filename), "/")
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	return clean, nil
}
