// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
)

// ChannelReporter delivers events on a buffered channel.
// When the buffer is full, output events are dropped; lifecycle events wait
// for room so a listener never misses a step finishing.
type ChannelReporter struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

// NewChannelReporter creates a ChannelReporter with the given buffer size.
func NewChannelReporter(bufferSize int) *ChannelReporter {
	return &ChannelReporter{
		ch: make(chan Event, bufferSize),
	}
}

// Report implements Reporter.
func (cr *ChannelReporter) Report(e Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed {
		return
	}

	if e.Type == EventOutput {
		select {
		case cr.ch <- e:
		default:
		}

		return
	}

	cr.ch <- e
}

// Events returns the receive side of the channel. It is closed by Close.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}

// Close stops delivery and closes the events channel. It is idempotent.
func (cr *ChannelReporter) Close() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.closed {
		return
	}

	cr.closed = true
	close(cr.ch)
}
