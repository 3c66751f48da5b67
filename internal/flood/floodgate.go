// Package flood provides per-user flood prevention so a burst of track links
// from one sender cannot drain the upstream API budget.
package flood

import (
	"sync"
	"time"
)

const (
	// windowDuration is the sliding window for flood detection
	windowDuration = 60 * time.Second
	// cleanupInterval is how often expired entries are removed
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long before an idle sender entry is dropped
	idleTimeout = 10 * time.Minute
)

// Floodgate limits how many link conversions a single sender can trigger per
// minute in a given chat.
type Floodgate struct {
	limitPerMinute int
	entries        map[string]*senderEntry // key: "chatID:senderID"
	mutex          sync.Mutex
	stopCleanup    chan struct{}
}

// senderEntry tracks conversion timestamps for one sender in one chat
type senderEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// New creates a Floodgate allowing limitPerMinute conversions per sender.
func New(limitPerMinute int) *Floodgate {
	fg := &Floodgate{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*senderEntry),
		stopCleanup:    make(chan struct{}),
	}

	go fg.cleanup()

	return fg
}

// Stop stops the background cleanup goroutine
func (fg *Floodgate) Stop() {
	close(fg.stopCleanup)
}

// Allow reports whether another conversion for this sender fits in the
// current window, and records it if so.
func (fg *Floodgate) Allow(chatID, senderID string) bool {
	key := chatID + ":" + senderID
	now := time.Now()

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	entry, exists := fg.entries[key]
	if !exists {
		entry = &senderEntry{
			timestamps: make([]time.Time, 0, fg.limitPerMinute+1),
		}
		fg.entries[key] = entry
	}

	entry.lastSeen = now

	// Drop timestamps that fell out of the window
	windowStart := now.Add(-windowDuration)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= fg.limitPerMinute {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

// cleanup removes idle sender entries to prevent unbounded growth
func (fg *Floodgate) cleanup() {
	fg.performCleanup()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fg.performCleanup()
		case <-fg.stopCleanup:
			return
		}
	}
}

func (fg *Floodgate) performCleanup() {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	cutoff := time.Now().Add(-idleTimeout)
	for key, entry := range fg.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(fg.entries, key)
		}
	}
}
