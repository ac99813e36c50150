// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fetch downloads scripts, manifests and repositories using Hashicorp's go-getter.
// See https://github.com/hashicorp/go-getter for the source syntax.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/scriptrun/internal/ctxlog"
)

var (
	// ErrFetch is returned when a source cannot be downloaded.
	ErrFetch = errors.New("failed to fetch")
	// ErrEmptySource is returned when no source was given.
	ErrEmptySource = errors.New("source is empty")
)

const tempPattern = "scriptrun-getter-*"

// IsRemote reports whether src uses go-getter syntax rather than naming a local path.
func IsRemote(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}

// Bytes returns the content of the file at src.
func Bytes(ctx context.Context, src string) ([]byte, error) {
	local, cleanup, err := File(ctx, src)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	b, err := os.ReadFile(local)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	return b, nil
}

// File downloads the single file at src into a temporary directory.
// It returns the local path and a cleanup function that removes the directory.
func File(ctx context.Context, src string) (string, func(), error) {
	if src == "" {
		return "", nil, errors.Join(ErrFetch, ErrEmptySource)
	}

	tmpDir, err := os.MkdirTemp("", tempPattern)
	if err != nil {
		return "", nil, errors.Join(ErrFetch, err)
	}

	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	wd, err := os.Getwd()
	if err != nil {
		cleanup()
		return "", nil, errors.Join(ErrFetch, err)
	}

	req := &getter.Request{
		Src:     src,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string

	// Non-local sources are fetched as a directory and the file is read from there.
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			cleanup()
			return "", nil, errors.Join(ErrFetch, err)
		}

		var newSrc string

		newSrc, fileName = splitFileNameFromGetterURL(src)

		switch {
		case newSrc != "" && fileName != "":
			req.Src = newSrc
		case remoteFileName(src) != "":
			// Plain URLs without a "//" subdirectory name a single file.
			fileName = remoteFileName(src)
			req.GetMode = getter.ModeFile
			req.Dst = filepath.Join(tmpDir, "g", fileName)
		default:
			cleanup()
			return "", nil, fmt.Errorf("%w: invalid source format: %s", ErrFetch, src)
		}
	}

	if fileName == "" {
		req.Src = filepath.Dir(src)
		fileName = filepath.Base(src)
	}

	ctxlog.Debug(ctx, "fetching file", "src", req.Src, "file", fileName)

	client := getter.Client{
		DisableSymlinks: true,
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		cleanup()
		return "", nil, errors.Join(ErrFetch, err)
	}

	local := filepath.Join(res.Dst, fileName)
	if req.GetMode == getter.ModeFile {
		local = res.Dst
	}

	if _, err := os.Stat(local); err != nil {
		cleanup()
		return "", nil, errors.Join(ErrFetch, err)
	}

	return local, cleanup, nil
}

// Dir downloads the directory at src, for example a git repository, into dst.
func Dir(ctx context.Context, src, dst string) error {
	if src == "" {
		return errors.Join(ErrFetch, ErrEmptySource)
	}

	wd, err := os.Getwd()
	if err != nil {
		return errors.Join(ErrFetch, err)
	}

	ctxlog.Debug(ctx, "fetching directory", "src", src, "dst", dst)

	client := getter.Client{
		DisableSymlinks: true,
	}

	if _, err := client.Get(ctx, &getter.Request{
		Src:     src,
		Dst:     dst,
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}); err != nil {
		return errors.Join(ErrFetch, err)
	}

	return nil
}

// remoteFileName returns the last path element of a URL source, or "" if it has none.
func remoteFileName(src string) string {
	if _, after, ok := strings.Cut(src, "::"); ok {
		src = after
	}

	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return ""
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." || strings.HasSuffix(u.Path, "/") {
		return ""
	}

	return name
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // Minimum parts in a go-getter URL: scheme, host, and path
)

// splitFileNameFromGetterURL splits the URL into the directory and file name.
// It returns the new getter URL without the file name and the file name itself,
// keeping any query string on the new URL.
func splitFileNameFromGetterURL(url string) (string, string) {
	var query string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if before, after, ok := strings.Cut(last, goGetterRefSeparator); ok {
		last, query = before, after
	}

	if last == "" || strings.HasSuffix(last, "/") {
		return "", ""
	}

	dir, fileName := filepath.Dir(last), filepath.Base(last)

	if dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = filepath.ToSlash(dir)
	}

	newURL := strings.Join(parts, goGetterPathSeparator)
	if query != "" {
		newURL += goGetterRefSeparator + query
	}

	return newURL, fileName
}
