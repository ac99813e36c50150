// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"sync"
)

// DefaultMaxCapture is the number of bytes of each stream kept in a Result.
const DefaultMaxCapture = 8 * 1024 * 1024 // 8MB

// capture keeps the first max bytes written to it and silently drops the rest.
type capture struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	max      int64
	overflow bool
}

func newCapture(maxBytes int64) *capture {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxCapture
	}

	return &capture{max: maxBytes}
}

func (c *capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room := c.max - int64(c.buf.Len())
	switch {
	case room <= 0:
		c.overflow = true
	case int64(len(p)) > room:
		c.buf.Write(p[:room])
		c.overflow = true
	default:
		c.buf.Write(p)
	}

	return len(p), nil
}

func (c *capture) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	return bytes.Clone(c.buf.Bytes())
}

func (c *capture) Overflowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.overflow
}

// maxLineLength is the longest line a lineWriter emits. The rest of a longer
// line is dropped up to the next newline.
const maxLineLength = bufio.MaxScanTokenSize

// lineWriter calls emit for each complete line written to it.
type lineWriter struct {
	mu      sync.Mutex
	partial []byte
	max     int  // maxLineLength when zero
	skip    bool // dropping the tail of an over-long line
	emit    func(string)
}

func (l *lineWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(p)

	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			l.add(p)
			break
		}

		l.add(p[:i])

		if !l.skip {
			l.send()
		}

		l.skip = false
		p = p[i+1:]
	}

	return n, nil
}

// Flush emits any trailing text that was not terminated by a newline.
func (l *lineWriter) Flush() {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.skip {
		l.send()
	}

	l.skip = false
	l.partial = nil
}

func (l *lineWriter) add(b []byte) {
	if l.skip {
		return
	}

	limit := l.max
	if limit <= 0 {
		limit = maxLineLength
	}

	if room := limit - len(l.partial); len(b) > room {
		l.partial = append(l.partial, b[:room]...)
		l.send()
		l.skip = true

		return
	}

	l.partial = append(l.partial, b...)
}

func (l *lineWriter) send() {
	if line := strings.TrimRight(string(l.partial), "\r"); line != "" {
		l.emit(line)
	}

	l.partial = l.partial[:0]
}

// tee writes to every non-nil writer and ignores their errors, so a broken
// console never stalls the child on a full pipe.
type tee []io.Writer

func (t tee) Write(p []byte) (int, error) {
	for _, w := range t {
		if w != nil {
			_, _ = w.Write(p)
		}
	}

	return len(p), nil
}
