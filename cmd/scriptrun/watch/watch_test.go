// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchPath(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		cwd     string
		want    string
		wantErr error
	}{
		{name: "relative", path: "a.sh", want: filepath.Join(wd, "a.sh")},
		{name: "relative to cwd", path: "a.sh", cwd: dir, want: filepath.Join(dir, "a.sh")},
		{name: "absolute", path: filepath.Join(dir, "b.sh"), cwd: t.TempDir(), want: filepath.Join(dir, "b.sh")},
		{name: "url", path: "https://example.com/install.sh", wantErr: ErrRemotePath},
		{name: "forced getter", path: "git::https://example.com/repo.git//run.sh", wantErr: ErrRemotePath},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := watchPath(tc.path, tc.cwd)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Contains(t, err.Error(), tc.path)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
