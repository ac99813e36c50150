// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	tests := []struct {
		name    string
		base    map[string]string
		pairs   []string
		want    map[string]string
		wantErr error
	}{
		{
			name: "nil base",
			want: map[string]string{},
		},
		{
			name:  "flags win over base",
			base:  map[string]string{"A": "1", "B": "2"},
			pairs: []string{"B=3", "C="},
			want:  map[string]string{"A": "1", "B": "3", "C": ""},
		},
		{
			name:  "value may contain equals",
			pairs: []string{"URL=a=b"},
			want:  map[string]string{"URL": "a=b"},
		},
		{
			name:    "missing equals",
			pairs:   []string{"NOPE"},
			wantErr: ErrInvalidEnv,
		},
		{
			name:    "empty key",
			pairs:   []string{"=x"},
			wantErr: ErrInvalidEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Env(tt.base, tt.pairs)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnv_DoesNotMutateBase(t *testing.T) {
	base := map[string]string{"A": "1"}

	_, err := Env(base, []string{"A=2"})
	require.NoError(t, err)
	assert.Equal(t, "1", base["A"])
}
