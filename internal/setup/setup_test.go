// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/scriptrun/internal/backend"
	"github.com/matt-FFFFFF/scriptrun/internal/config"
	"github.com/matt-FFFFFF/scriptrun/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is an Executor that records commands instead of running them.
type recorder struct {
	mu       sync.Mutex
	commands []string
	status   runner.Status
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Execute(_ context.Context, req backend.Request) *runner.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = append(r.commands, req.Command)

	res := &runner.Result{Label: req.Label, Status: r.status}
	if r.status == runner.StatusError {
		res.Error = runner.ErrNonZeroExit
	}

	return res
}

func TestPlan_NothingToDo(t *testing.T) {
	_, err := Plan(nil, &recorder{})
	require.ErrorIs(t, err, ErrNothingToDo)

	_, err = Plan(&config.SetupConfig{PackageManager: "apt"}, &recorder{})
	require.ErrorIs(t, err, ErrNothingToDo)
}

func TestPlan_InstallAndClone(t *testing.T) {
	existing := t.TempDir()
	fresh := filepath.Join(t.TempDir(), "fresh")

	rec := &recorder{status: runner.StatusSuccess}

	r, err := Plan(&config.SetupConfig{
		Packages: []string{"git", "nodejs", "python"},
		Repositories: []config.RepositoryConfig{
			{URL: "git::https://example.com/a.git", Dest: existing},
			{URL: "git::https://example.com/b.git", Dest: fresh},
		},
	}, rec)
	require.NoError(t, err)

	batch, ok := r.(*runner.SerialBatch)
	require.True(t, ok)
	require.Len(t, batch.Commands, 3)

	var fetched []string

	for _, c := range batch.Commands[1:] {
		c.(*Clone).Get = func(_ context.Context, src, dst string) error { //nolint:forcetypeassert
			fetched = append(fetched, src+" -> "+dst)
			return os.MkdirAll(dst, 0o755)
		}
	}

	res := r.Run(context.Background()).First()

	assert.Equal(t, []string{"pkg install -y git nodejs python"}, rec.commands)
	require.Len(t, res.Children, 3)
	assert.Equal(t, runner.StatusSkipped, res.Children[1].Status)
	require.ErrorIs(t, res.Children[1].Error, ErrDestinationExists)
	assert.Equal(t, runner.StatusSuccess, res.Children[2].Status)
	assert.Equal(t, []string{"git::https://example.com/b.git -> " + fresh}, fetched)
	assert.False(t, res.Failed())
}

func TestPlan_InstallFailureSkipsClones(t *testing.T) {
	rec := &recorder{status: runner.StatusError}

	r, err := Plan(&config.SetupConfig{
		PackageManager: "apt-get",
		Packages:       []string{"git"},
		Repositories:   []config.RepositoryConfig{{URL: "x", Dest: filepath.Join(t.TempDir(), "x")}},
	}, rec)
	require.NoError(t, err)

	res := r.Run(context.Background()).First()

	assert.Equal(t, []string{"apt-get install -y git"}, rec.commands)
	assert.Equal(t, runner.StatusSkipped, res.Children[1].Status)
	assert.True(t, res.Failed())
}

func TestClone_GetFails(t *testing.T) {
	c := NewClone("git::https://example.com/x.git", filepath.Join(t.TempDir(), "x"))
	c.Get = func(context.Context, string, string) error { return errors.New("network down") }

	res := c.Run(context.Background()).First()

	assert.Equal(t, runner.StatusError, res.Status)
	assert.EqualError(t, res.Error, "network down")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/tools")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tools"), got)

	got, err = expandHome("/abs/~/x")
	require.NoError(t, err)
	assert.Equal(t, "/abs/~/x", got)
}
