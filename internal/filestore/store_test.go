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

package filestore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesParents(t *testing.T) {
	ctx := context.Background()
	store := New(afero.NewMemMapFs())

	require.NoError(t, store.Write(ctx, "/tftp/pxelinux.cfg/default", []byte("menu")))

	data, err := store.Read(ctx, "/tftp/pxelinux.cfg/default")
	require.NoError(t, err)
	assert.Equal(t, []byte("menu"), data)
}

func TestWriteOverwrites(t *testing.T) {
	ctx := context.Background()
	store := New(afero.NewMemMapFs())

	require.NoError(t, store.Write(ctx, "/tftp/grub2/grub.cfg", []byte("first version")))
	require.NoError(t, store.Write(ctx, "/tftp/grub2/grub.cfg", []byte("second")))

	data, err := store.Read(ctx, "/tftp/grub2/grub.cfg")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestReadMissing(t *testing.T) {
	store := New(afero.NewMemMapFs())

	_, err := store.Read(context.Background(), "/tftp/pxelinux.cfg/01-aa-bb-cc-dd-ee-ff")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDelete(t *testing.T) {
	testcases := map[string]struct {
		setup func(t *testing.T, fs afero.Fs)
	}{
		"existing file": {
			setup: func(t *testing.T, fs afero.Fs) {
				require.NoError(t, afero.WriteFile(fs, "/tftp/default", []byte("x"), 0o644))
			},
		},
		"missing file": {
			setup: func(t *testing.T, fs afero.Fs) {},
		},
		"missing parent": {
			setup: func(t *testing.T, fs afero.Fs) {
				require.NoError(t, fs.RemoveAll("/tftp"))
			},
		},
	}

	for name, tc := range testcases {
		t.Run(name, func(t *testing.T) {
			memfs := afero.NewMemMapFs()
			tc.setup(t, memfs)

			store := New(memfs)
			require.NoError(t, store.Delete(context.Background(), "/tftp/default"))

			exists, err := afero.Exists(memfs, "/tftp/default")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestDeletePermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "default")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.NoError(t, os.Chmod(dir, 0o555))

	t.Cleanup(func() {
		//nolint:errcheck // best effort so TempDir can be removed
		os.Chmod(dir, 0o755)
	})

	store := New(afero.NewOsFs())
	assert.Error(t, store.Delete(context.Background(), file))
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	memfs := afero.NewMemMapFs()
	store := New(memfs)

	require.NoError(t, store.Write(ctx, "/tftp/host-config/aa-bb-cc-dd-ee-ff/grub2/grub.cfg", []byte("x")))
	require.NoError(t, store.DeleteAll(ctx, "/tftp/host-config/aa-bb-cc-dd-ee-ff"))

	exists, err := afero.DirExists(memfs, "/tftp/host-config/aa-bb-cc-dd-ee-ff")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.DeleteAll(ctx, "/tftp/host-config/aa-bb-cc-dd-ee-ff"))
}
