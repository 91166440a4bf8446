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

package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const (
	testConfig = "/etc/maas/tftp.yaml"
	testRoot   = "/srv/tftp"
	testMAC    = "52:54:00:12:34:56"
)

// run executes the root command with args against fs and returns stdout.
func run(t *testing.T, fs afero.Fs, stdin string, args ...string) (string, error) {
	t.Helper()

	a := &app{fs: fs, stdin: strings.NewReader(stdin)}
	cmd := rootCmd(context.Background(), a)

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", testConfig}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func initFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()

	_, err := run(t, fs, "", "init", "--root", testRoot)
	require.NoError(t, err)

	return fs
}

func TestInit(t *testing.T) {
	fs := initFs(t)

	data, err := afero.ReadFile(fs, testConfig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `root: "`+testRoot+`"`)

	_, err = run(t, fs, "", "init")
	assert.ErrorIs(t, err, os.ErrExist)

	_, err = run(t, fs, "", "init", "--force", "--root", "/srv/other")
	require.NoError(t, err)

	data, err = afero.ReadFile(fs, testConfig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `root: "/srv/other"`)
}

func TestSetGetDel(t *testing.T) {
	testcases := map[string]struct {
		variant string
		path    string
	}{
		"pxelinux": {
			variant: "pxelinux",
			path:    "/srv/tftp/pxelinux.cfg/01-52-54-00-12-34-56",
		},
		"pxegrub2": {
			variant: "pxegrub2",
			path:    "/srv/tftp/host-config/52-54-00-12-34-56/grub2/grub.cfg",
		},
		"ipxe": {
			variant: "ipxe",
			path:    "/srv/tftp/pxelinux.cfg/01-52-54-00-12-34-56.ipxe",
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			fs := initFs(t)

			_, err := run(t, fs, "boot config", "set", tc.variant, testMAC)
			require.NoError(t, err)

			data, err := afero.ReadFile(fs, tc.path)
			require.NoError(t, err)
			assert.Equal(t, "boot config", string(data))

			out, err := run(t, fs, "", "get", tc.variant, testMAC)
			require.NoError(t, err)
			assert.Equal(t, "boot config", out)

			_, err = run(t, fs, "", "del", tc.variant, testMAC)
			require.NoError(t, err)

			exists, err := afero.Exists(fs, tc.path)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestSetFromFile(t *testing.T) {
	fs := initFs(t)

	require.NoError(t, afero.WriteFile(fs, "/tmp/grub.cfg", []byte("menuentry"), 0o644))

	_, err := run(t, fs, "", "set", "pxegrub", testMAC, "--file", "/tmp/grub.cfg")
	require.NoError(t, err)

	out, err := run(t, fs, "", "get", "pxegrub", testMAC)
	require.NoError(t, err)
	assert.Equal(t, "menuentry", out)
}

func TestCreateDefault(t *testing.T) {
	fs := initFs(t)

	_, err := run(t, fs, "default config", "create-default", "pxegrub2")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/srv/tftp/grub2/grub.cfg")
	require.NoError(t, err)
	assert.Equal(t, "default config", string(data))
}

func TestUnknownVariant(t *testing.T) {
	fs := initFs(t)

	_, err := run(t, fs, "", "get", "pxeboot", testMAC)
	assert.Error(t, err)
}

func TestSetupBootloaderRequiresMAC(t *testing.T) {
	fs := initFs(t)

	_, err := run(t, fs, "", "setup-bootloader", "pxegrub2", "",
		"--os", "ubuntu", "--release", "noble", "--arch", "amd64", "--bootfile-suffix", "x64")
	assert.Error(t, err)
}

func TestFetchNFSIsNoop(t *testing.T) {
	fs := initFs(t)

	out, err := run(t, fs, "", "fetch", "ubuntu/noble", "nfs://images.example.com/noble/squashfs")
	require.NoError(t, err)
	assert.Equal(t, "/srv/tftp/ubuntu/noble-squashfs\n", out)

	exists, err := afero.DirExists(fs, "/srv/tftp/ubuntu")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCommandsReportMetrics(t *testing.T) {
	previous := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	fs := initFs(t)

	_, err := run(t, fs, "boot config", "set", "pxelinux", testMAC)
	require.NoError(t, err)
	_, err = run(t, fs, "", "del", "pxelinux", testMAC)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	values := map[string]int64{}

	for _, sm := range rm.ScopeMetrics {
		assert.Equal(t, instrumentationName, sm.Scope.Name)

		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)

			for _, dp := range sum.DataPoints {
				values[m.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, map[string]int64{
		"tftp.config.writes":  1,
		"tftp.config.deletes": 1,
	}, values)
}
