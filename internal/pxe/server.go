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

package pxe

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"maas.io/core/src/maastftp/internal/filestore"
)

var (
	// ErrInvalidInput is returned when a required MAC address or
	// configuration content is missing.
	ErrInvalidInput = errors.New("invalid parameters received")
)

// Server publishes per-host and default bootloader configuration for one
// bootloader family. File naming is delegated to the family Layout, so
// the same code path serves every family.
//
// Server holds no per-host state and does not serialise concurrent calls
// for the same host; callers needing that have to lock externally.
type Server struct {
	layout     Layout
	store      *filestore.Store
	bootloader *BootloaderProvisioner

	writes  metric.Int64Counter
	deletes metric.Int64Counter
	attrs   metric.MeasurementOption
}

// ServerOption allows to set additional Server options
type ServerOption func(*Server)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}

// WithMetricMeter allows to set OpenTelemetry metric.Meter
// to count written and deleted files.
func WithMetricMeter(meter metric.Meter) ServerOption {
	return func(s *Server) {
		s.writes = must(meter.Int64Counter("tftp.config.writes",
			metric.WithUnit("{file}"),
			metric.WithDescription("Configuration files written")))
		s.deletes = must(meter.Int64Counter("tftp.config.deletes",
			metric.WithUnit("{file}"),
			metric.WithDescription("Configuration files deleted")))
	}
}

// NewServer returns a Server for family f publishing files below root.
func NewServer(f Family, root string, store *filestore.Store, options ...ServerOption) (*Server, error) {
	layout := NewLayout(f, root)
	if layout == nil {
		return nil, ErrUnknownFamily
	}

	s := &Server{
		layout: layout,
		store:  store,
		attrs:  metric.WithAttributes(attribute.String("family", f.String())),
	}

	if l, ok := layout.(pxegrub2Layout); ok {
		s.bootloader = NewBootloaderProvisioner(store.Fs(), l)
	}

	WithMetricMeter(noop.NewMeterProvider().Meter(""))(s)

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Layout returns the file layout of the served family.
func (s *Server) Layout() Layout {
	return s.layout
}

// Set writes config to every configuration file of the host.
func (s *Server) Set(ctx context.Context, mac MACAddress, config []byte) error {
	if mac == "" || config == nil {
		return ErrInvalidInput
	}

	for _, file := range s.layout.ConfigFiles(mac) {
		if err := s.store.Write(ctx, file, config); err != nil {
			return err
		}

		s.writes.Add(ctx, 1, s.attrs)
	}

	return nil
}

// Get returns the content of the most preferred configuration file of
// the host. filestore.ErrNotFound is returned when it does not exist.
func (s *Server) Get(ctx context.Context, mac MACAddress) ([]byte, error) {
	if mac == "" {
		return nil, ErrInvalidInput
	}

	return s.store.Read(ctx, s.layout.ConfigFiles(mac)[0])
}

// Del removes every configuration file of the host. Files that do not
// exist are skipped. For pxegrub2 the whole host directory is removed
// as well, so an address whose host directory is not below host-config
// is refused before anything is deleted.
func (s *Server) Del(ctx context.Context, mac MACAddress) error {
	if mac == "" {
		return ErrInvalidInput
	}

	l, isGrub2 := s.layout.(pxegrub2Layout)
	if isGrub2 && !l.ownsHostRoot(mac) {
		return fmt.Errorf("%w: host directory of %q is outside %s", ErrInvalidInput, mac, hostConfigDir)
	}

	for _, file := range s.layout.ConfigFiles(mac) {
		if err := s.store.Delete(ctx, file); err != nil {
			return err
		}

		s.deletes.Add(ctx, 1, s.attrs)
	}

	if isGrub2 {
		return s.store.DeleteAll(ctx, l.HostRoot(mac))
	}

	return nil
}

// CreateDefault writes config to every default file of the family.
func (s *Server) CreateDefault(ctx context.Context, config []byte) error {
	if config == nil {
		return ErrInvalidInput
	}

	for _, file := range s.layout.DefaultFiles() {
		if err := s.store.Write(ctx, file, config); err != nil {
			return err
		}

		s.writes.Add(ctx, 1, s.attrs)
	}

	return nil
}

// SetupBootloader deploys host specific bootloader files. Only pxegrub2
// has any; for other families this is a no-op.
func (s *Server) SetupBootloader(ctx context.Context, req BootloaderRequest) error {
	if req.MAC == "" {
		return ErrInvalidInput
	}

	if s.bootloader == nil {
		return nil
	}

	if !s.bootloader.layout.ownsHostRoot(req.MAC) {
		return fmt.Errorf("%w: host directory of %q is outside %s", ErrInvalidInput, req.MAC, hostConfigDir)
	}

	return s.bootloader.Setup(ctx, req)
}
