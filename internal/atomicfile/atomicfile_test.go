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

package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileWithFs(t *testing.T) {
	testcases := map[string]struct {
		existing []byte
		in       []byte
	}{
		"new file": {
			in: []byte("menu"),
		},
		"replace existing": {
			existing: []byte("a much longer previous content"),
			in:       []byte("short"),
		},
		"empty content": {
			existing: []byte("previous"),
			in:       []byte{},
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll("/tftp", 0o755))

			if tc.existing != nil {
				require.NoError(t, afero.WriteFile(fs, "/tftp/default", tc.existing, 0o644))
			}

			require.NoError(t, WriteFileWithFs(fs, "/tftp/default", tc.in, 0o644))

			data, err := afero.ReadFile(fs, "/tftp/default")
			require.NoError(t, err)
			assert.Equal(t, tc.in, data)

			leftovers, err := afero.Glob(fs, "/tftp/*.tmp")
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "missing", "default")

	err := WriteFileWithFs(afero.NewOsFs(), filename, []byte("menu"), 0o644)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFilePermissions(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "default")

	require.NoError(t, WriteFileWithFs(afero.NewOsFs(), filename, []byte("menu"), 0o640))

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}
