// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPath string
		wantRest []string
		wantOK   bool
	}{
		{name: "no arguments", args: nil},
		{name: "empty path", args: []string{""}},
		{name: "only separator", args: []string{"--"}},
		{name: "path only", args: []string{"a.js"}, wantPath: "a.js", wantRest: []string{}, wantOK: true},
		{name: "path and args", args: []string{"a.js", "x"}, wantPath: "a.js", wantRest: []string{"x"}, wantOK: true},
		{name: "separator after path", args: []string{"a.js", "--", "-v"}, wantPath: "a.js", wantRest: []string{"-v"}, wantOK: true},
		{name: "separator before path", args: []string{"--", "a.js"}, wantPath: "a.js", wantRest: []string{}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, rest, ok := SplitArgs(tt.args)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPath, path)

			if tt.wantOK {
				assert.Equal(t, tt.wantRest, rest)
			}
		})
	}
}
