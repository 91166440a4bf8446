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

package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"maas.io/core/src/maastftp/internal/atomicfile"
	"maas.io/core/src/maastftp/internal/pathutil"
)

const (
	configTemplateName = "config.yaml.tmpl"
	// EnvConfigFile overrides the default configuration file location.
	EnvConfigFile = "MAAS_TFTP_CONFIG"

	defaultRoot           = "boot-resources/current"
	defaultBindAddress    = ":69"
	defaultMetricsAddress = "127.0.0.1:5249"
)

//go:embed config.yaml.tmpl
var configFS embed.FS

var configTmpl = template.Must(
	template.New(configTemplateName).
		Funcs(template.FuncMap{
			"quote": quote,
		}).
		ParseFS(configFS, configTemplateName),
)

// quote renders s as a double-quoted YAML scalar.
func quote(s string) (string, error) {
	out, err := yaml.Marshal(&yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.DoubleQuotedStyle,
		Value: s,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(string(out), "\n"), nil
}

// DefaultFile returns the configuration file used when none is given
// explicitly.
func DefaultFile() string {
	if fname := os.Getenv(EnvConfigFile); fname != "" {
		return fname
	}

	return pathutil.ConfigPath("tftp.yaml")
}

// Options are the values rendered into a generated configuration.
type Options struct {
	Root        string
	BindAddress string
}

// Generate renders the configuration template, stores it to file and
// returns the parsed Config.
func Generate(fs afero.Fs, file string, opts Options) (*Config, error) {
	if opts.Root == "" {
		opts.Root = defaultRoot
	}

	if opts.BindAddress == "" {
		opts.BindAddress = defaultBindAddress
	}

	var buf bytes.Buffer

	if err := configTmpl.Execute(&buf, opts); err != nil {
		return nil, fmt.Errorf("render config template: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(buf.Bytes(), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	if err := atomicfile.WriteFileWithFs(fs, file, buf.Bytes(), 0o640); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Load reads file and returns the parsed Config. A missing file results
// in the default configuration.
func Load(fs afero.Fs, file string) (*Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fs, file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used for anything not set explicitly.
func Default() *Config {
	return &Config{
		TFTP: TFTPConfig{
			Root:             pathutil.Absolute(defaultRoot),
			ConnectTimeout:   10 * time.Second,
			VerifyServerCert: true,
		},
		Serve: ServeConfig{
			BindAddress: defaultBindAddress,
			Timeout:     5 * time.Second,
			MaxFileSize: ByteSize[int64]{Bytes: 2_000_000_000, Raw: "2GB"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: InfoLevel},
			Metrics: MetricsConfig{BindAddress: defaultMetricsAddress},
		},
	}
}

// Config represents the set of configuration options of the TFTP service.
type Config struct {
	TFTP          TFTPConfig          `yaml:"tftp"`
	Serve         ServeConfig         `yaml:"serve"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// TFTPConfig holds the settings shared by every bootloader family and
// by boot file fetching.
type TFTPConfig struct {
	// Root is the absolute TFTP root directory. Relative values are
	// resolved against the MAAS data directory when loaded.
	Root string `yaml:"root"`
	// ConnectTimeout bounds connecting to a boot media server.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// RetryTimeout bounds retrying a failed boot file download. Zero,
	// the default, leaves retrying to the caller.
	RetryTimeout time.Duration `yaml:"retry_timeout"`
	// VerifyServerCert enables TLS certificate checks for HTTPS media.
	VerifyServerCert bool `yaml:"verify_server_cert"`
}

// rawTFTPConfig has the same layout as TFTPConfig, without the custom
// unmarshaler.
type rawTFTPConfig TFTPConfig

// UnmarshalYAML implements the yaml.Unmarshaler interface.
// It resolves a relative root directory.
func (c *TFTPConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := rawTFTPConfig(*c)

	if err := value.Decode(&raw); err != nil {
		return err
	}

	*c = TFTPConfig(raw)
	c.Root = pathutil.Absolute(c.Root)

	return nil
}

// ServeConfig configures the read-only TFTP listener.
type ServeConfig struct {
	BindAddress string          `yaml:"bind_address"`
	Timeout     time.Duration   `yaml:"timeout"`
	MaxFileSize ByteSize[int64] `yaml:"max_file_size"`
}

// ObservabilityConfig holds configuration for logging, metrics and tracing.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	// Level defines the minimum logging severity level (debug, info, warn, error).
	Level LogLevel `yaml:"level"`
}

// MetricsConfig enables the Prometheus endpoint of the serve command.
type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bind_address"`
}

// TracingConfig enables exporting traces over OTLP/HTTP.
type TracingConfig struct {
	Enabled          bool   `yaml:"enabled"`
	OTLPHTTPEndpoint string `yaml:"otlp_http_endpoint"`
}

type Integeric interface {
	~uint16 | ~int64 | ~uint64
}

// ByteSize represents a size in bytes.
// It provides human-readable formatting and YAML serialization.
type ByteSize[T Integeric] struct {
	Bytes T
	Raw   string
}

// String returns the byte size formatted as a human-readable string
// with no spaces (e.g., "2GB", "512MB").
func (x ByteSize[T]) String() string {
	return strings.ReplaceAll(humanize.Bytes(uint64(x.Bytes)), " ", "")
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
// It parses a human-readable byte size string (e.g., "2GB", "512MB").
func (x *ByteSize[T]) UnmarshalYAML(value *yaml.Node) error {
	x.Raw = value.Value

	parsed, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return err
	}

	switch any(x.Bytes).(type) {
	case uint16:
		if parsed > math.MaxUint16 {
			return fmt.Errorf("value %d exceeds uint16 capacity", parsed)
		}
	case int64:
		if parsed > math.MaxInt64 {
			return fmt.Errorf("value %d exceeds int64 capacity", parsed)
		}
	}

	x.Bytes = T(parsed)

	return nil
}
