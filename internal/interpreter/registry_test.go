// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package interpreter

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/s/tool", []byte("#!/usr/bin/env python3 -u\nprint(1)\n"), 0o755))
	require.NoError(t, afero.WriteFile(fs, "/s/abs", []byte("#!/bin/bash -e\n"), 0o755))
	require.NoError(t, afero.WriteFile(fs, "/s/plain", []byte("console.log(1)\n"), 0o644))

	r := NewRegistry(WithFs(fs))

	tests := []struct {
		name     string
		script   string
		override string
		command  string
		args     []string
		source   Source
	}{
		{name: "javascript", script: "/s/app.js", command: "node", source: SourceExtension},
		{name: "module javascript", script: "/s/app.MJS", command: "node", source: SourceExtension},
		{name: "python", script: "/s/app.py", command: "python3", source: SourceExtension},
		{name: "shell", script: "/s/app.sh", command: "bash", source: SourceExtension},
		{name: "powershell", script: "/s/app.ps1", command: "pwsh", args: []string{"-NonInteractive", "-NoProfile", "-File"}, source: SourceExtension},
		{name: "override wins", script: "/s/app.py", override: "pypy3 -O", command: "pypy3", args: []string{"-O"}, source: SourceOverride},
		{name: "env shebang", script: "/s/tool", command: "python3", args: []string{"-u"}, source: SourceShebang},
		{name: "absolute shebang", script: "/s/abs", command: "/bin/bash", args: []string{"-e"}, source: SourceShebang},
		{name: "no shebang falls back", script: "/s/plain", command: "node", source: SourceFallback},
		{name: "missing file falls back", script: "/s/missing", command: "node", source: SourceFallback},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			i, src, err := r.Resolve(tc.script, tc.override)
			require.NoError(t, err)
			assert.Equal(t, tc.command, i.Command)
			assert.Equal(t, len(tc.args), len(i.Args))

			if len(tc.args) > 0 {
				assert.Equal(t, tc.args, i.Args)
			}

			assert.Equal(t, tc.source, src)
		})
	}
}

func TestResolve_BlankOverrideIgnored(t *testing.T) {
	r := NewRegistry(WithFs(afero.NewMemMapFs()))

	i, src, err := r.Resolve("x.sh", "   ")

	require.NoError(t, err)
	assert.Equal(t, "bash", i.Command)
	assert.Equal(t, SourceExtension, src)
}

func TestRegisterAndFallback(t *testing.T) {
	r := NewRegistry(WithFs(afero.NewMemMapFs()), WithFallback(Interpreter{Command: "sh"}))
	r.Register("rb", Interpreter{Command: "ruby"})
	r.Register(".PY", Interpreter{Command: "python3.12"})

	i, ok := r.Lookup(".rb")
	require.True(t, ok)
	assert.Equal(t, "ruby", i.Command)

	i, _, _ = r.Resolve("a.py", "")
	assert.Equal(t, "python3.12", i.Command)

	i, src, _ := r.Resolve("a.unknown", "")
	assert.Equal(t, "sh", i.Command)
	assert.Equal(t, SourceFallback, src)
	assert.Contains(t, r.Extensions(), ".rb")
	assert.Equal(t, "sh", r.Fallback().DisplayName())
}

func TestParseShebang(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want Interpreter
	}{
		{line: "#!/usr/bin/env node", ok: true, want: Interpreter{Name: "node", Command: "node", Args: []string{}}},
		{line: "#!/usr/bin/env -S deno run --allow-net\r\n", ok: true, want: Interpreter{Name: "deno", Command: "deno", Args: []string{"run", "--allow-net"}}},
		{line: "#!/usr/bin/env FOO=1 python3", ok: true, want: Interpreter{Name: "python3", Command: "python3", Args: []string{}}},
		{line: "#! /bin/sh", ok: true, want: Interpreter{Name: "sh", Command: "/bin/sh", Args: []string{}}},
		{line: "#!/usr/bin/env", ok: false},
		{line: "#!", ok: false},
		{line: "echo hi", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, ok := ParseShebang(tc.line)
			assert.Equal(t, tc.ok, ok)

			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	fs := afero.NewMemMapFs()
	bin := filepath.FromSlash("/opt/bin")
	require.NoError(t, afero.WriteFile(fs, filepath.Join(bin, "node"), []byte{}, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(bin, "notexec"), []byte{}, 0o644))
	require.NoError(t, fs.MkdirAll(filepath.Join(bin, "dir"), 0o755))

	r := NewRegistry(WithFs(fs), WithPath("/nope"+string(filepath.ListSeparator)+bin))

	got, err := r.Locate("node")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "node"), got)

	got, err = r.Locate(filepath.Join(bin, "node"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "node"), got)

	for _, missing := range []string{"python3", "dir", "/opt/bin/missing"} {
		_, err = r.Locate(missing)
		require.ErrorIs(t, err, ErrInterpreterNotFound, missing)
	}

	_, err = r.Locate("")
	require.ErrorIs(t, err, ErrEmptyInterpreter)
}

func TestInterpreter(t *testing.T) {
	i, err := Parse("/usr/bin/python3 -u")
	require.NoError(t, err)

	assert.Equal(t, "python3", i.DisplayName())
	assert.Equal(t, "/usr/bin/python3 -u", i.String())
	assert.Equal(t, []string{"-u", "x.py", "a", "b"}, i.Argv("x.py", "a", "b"))

	_, err = Parse(" ")
	require.ErrorIs(t, err, ErrEmptyInterpreter)

	assert.Equal(t, "node", Interpreter{Command: "/usr/local/bin/node"}.DisplayName())
	assert.Equal(t, "fallback", SourceFallback.String())
}
