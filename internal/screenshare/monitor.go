// Package screenshare mutes the device while a conferencing app shares the screen.
package screenshare

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultInterval is the window-list polling cadence.
const DefaultInterval = 2 * time.Second

// WindowSource lists the titles of visible toplevel windows.
type WindowSource interface {
	Titles(ctx context.Context) ([]string, error)
}

// Muter is the subset of the mute synchronizer the monitor drives.
type Muter interface {
	Refresh(onDone func()) error
	Set(desired bool) error
	Muted() bool
}

// IsSharing reports whether any title carries both markers.
func IsSharing(titles []string, appMarker, shareMarker string) bool {
	for _, title := range titles {
		if strings.Contains(title, appMarker) && strings.Contains(title, shareMarker) {
			return true
		}
	}
	return false
}

// Monitor polls Source and reacts to sharing edges.
type Monitor struct {
	Source      WindowSource
	Muter       Muter
	AppMarker   string
	ShareMarker string
	Interval    time.Duration
	Logger      *slog.Logger
	// OnSharing, if set, observes every sharing edge.
	OnSharing func(sharing bool)

	mu      sync.Mutex
	sharing bool
	weMuted bool
}

// Run polls until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.Step(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Step performs one poll. A failed poll changes nothing.
func (m *Monitor) Step(ctx context.Context) {
	log := m.logger()

	titles, err := m.Source.Titles(ctx)
	if err != nil {
		log.Debug("window poll failed", "error", err.Error())
		return
	}
	sharing := IsSharing(titles, m.AppMarker, m.ShareMarker)

	m.mu.Lock()
	previous := m.sharing
	m.sharing = sharing
	m.mu.Unlock()

	if sharing == previous {
		return
	}
	log.Info("screen share changed", "sharing", sharing)
	if m.OnSharing != nil {
		m.OnSharing(sharing)
	}

	if sharing {
		m.shareStarted(log)
		return
	}
	m.shareStopped(log)
}

// Sharing reports the last observed sharing state.
func (m *Monitor) Sharing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sharing
}

// shareStarted mutes once the refresh lands, unless sharing has already
// stopped by then. The check and the mark happen under mu so a stop edge
// either sees weMuted or the mute never happens.
func (m *Monitor) shareStarted(log *slog.Logger) {
	err := m.Muter.Refresh(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if !m.sharing {
			log.Debug("screen share ended before mute refresh")
			return
		}
		if m.Muter.Muted() {
			return
		}
		if err := m.Muter.Set(true); err != nil {
			log.Warn("mute for screen share failed", "error", err.Error())
			return
		}
		m.weMuted = true
	})
	if err != nil {
		log.Warn("mute refresh for screen share failed", "error", err.Error())
	}
}

func (m *Monitor) shareStopped(log *slog.Logger) {
	m.mu.Lock()
	weMuted := m.weMuted
	m.weMuted = false
	m.mu.Unlock()

	if !weMuted {
		return
	}
	if err := m.Muter.Set(false); err != nil {
		log.Warn("unmute after screen share failed", "error", err.Error())
	}
}

func (m *Monitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}
