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
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestByteSize(t *testing.T) {
	format := `serve:
  max_file_size: %s`

	testcases := map[string]struct {
		out ByteSize[int64]
	}{
		"13370042B": {
			out: ByteSize[int64]{Bytes: 13370042, Raw: "13370042B"},
		},
		"1337KB": {
			out: ByteSize[int64]{Bytes: 1337000, Raw: "1337KB"},
		},
		"0.5GB": {
			out: ByteSize[int64]{Bytes: 500000000, Raw: "0.5GB"},
		},
	}

	for name, tc := range testcases {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			expected := fmt.Appendf(nil, format, name)

			var conf Config
			require.NoError(t, yaml.Unmarshal(expected, &conf))
			require.Equal(t, tc.out, conf.Serve.MaxFileSize)
			require.Equal(t, name, conf.Serve.MaxFileSize.Raw)
		})
	}
}

func TestGenerate(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/etc/maas/tftp.yaml"

	cfg, err := Generate(fs, path, Options{Root: "/srv/tftp", BindAddress: "10.0.0.1:69"})
	require.NoError(t, err)

	loaded, err := Load(fs, path)
	require.NoError(t, err)

	expected := &Config{
		TFTP: TFTPConfig{
			Root:             "/srv/tftp",
			ConnectTimeout:   10 * time.Second,
			VerifyServerCert: true,
		},
		Serve: ServeConfig{
			BindAddress: "10.0.0.1:69",
			Timeout:     5 * time.Second,
			MaxFileSize: ByteSize[int64]{Bytes: 2000000000, Raw: "2GB"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info"},
			Metrics: MetricsConfig{
				Enabled:     false,
				BindAddress: "127.0.0.1:5249",
			},
		},
	}

	require.Equal(t, expected, cfg)
	require.Equal(t, loaded, cfg)
}

func TestGenerateQuotesValues(t *testing.T) {
	testcases := map[string]struct {
		root        string
		bindAddress string
	}{
		"comment marker": {
			root:        "/srv/tftp #1",
			bindAddress: ":69",
		},
		"mapping indicator": {
			root:        "/srv/tftp: boot",
			bindAddress: "[::]:69",
		},
		"quotes and backslash": {
			root:        `/srv/"tftp"\boot`,
			bindAddress: "10.0.0.1:69",
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			path := "/etc/maas/tftp.yaml"

			cfg, err := Generate(fs, path, Options{Root: tc.root, BindAddress: tc.bindAddress})
			require.NoError(t, err)
			assert.Equal(t, tc.root, cfg.TFTP.Root)
			assert.Equal(t, tc.bindAddress, cfg.Serve.BindAddress)

			loaded, err := Load(fs, path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/etc/maas/tftp.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPartial(t *testing.T) {
	t.Setenv("SNAP_COMMON", "")

	testcases := map[string]struct {
		in     string
		root   string
		verify bool
		tmo    time.Duration
	}{
		"relative root": {
			in:     "tftp:\n  root: tftp-root\n",
			root:   "/var/lib/maas/tftp-root",
			verify: true,
			tmo:    10 * time.Second,
		},
		"absolute root": {
			in:     "tftp:\n  root: /srv/tftp/\n  verify_server_cert: false\n",
			root:   "/srv/tftp",
			verify: false,
			tmo:    10 * time.Second,
		},
		"timeout only": {
			in:     "tftp:\n  connect_timeout: 1m\n",
			root:   "/var/lib/maas/boot-resources/current",
			verify: true,
			tmo:    time.Minute,
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/tftp.yaml", []byte(tc.in), 0o640))

			cfg, err := Load(fs, "/tftp.yaml")
			require.NoError(t, err)

			assert.Equal(t, tc.root, cfg.TFTP.Root)
			assert.Equal(t, tc.verify, cfg.TFTP.VerifyServerCert)
			assert.Equal(t, tc.tmo, cfg.TFTP.ConnectTimeout)
			assert.Equal(t, ":69", cfg.Serve.BindAddress)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tftp.yaml", []byte("serve:\n  max_file_size: lots\n"), 0o640))

	_, err := Load(fs, "/tftp.yaml")
	assert.Error(t, err)
}

func TestDefaultFile(t *testing.T) {
	t.Setenv("SNAP_COMMON", "")

	t.Setenv(EnvConfigFile, "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", DefaultFile())

	t.Setenv(EnvConfigFile, "")
	assert.Equal(t, "/etc/maas/tftp.yaml", DefaultFile())
}
