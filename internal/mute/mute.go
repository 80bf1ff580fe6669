// Package mute keeps the cached mute state aligned with the device.
package mute

import (
	"log/slog"

	"github.com/rbright/heosctl/internal/command"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/heos"
)

// Sender dispatches one player command.
type Sender interface {
	Send(name string, params string, onResponse func(string)) error
}

// Synchronizer reads and writes the device mute state through Sender.
type Synchronizer struct {
	send   Sender
	state  *device.State
	logger *slog.Logger
}

// NewSynchronizer returns a synchronizer caching into state.
func NewSynchronizer(send Sender, state *device.State, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synchronizer{send: send, state: state, logger: logger}
}

// Muted returns the cached state.
func (s *Synchronizer) Muted() bool {
	return s.state.Muted()
}

// Refresh asks the device for its mute state, caches it, then calls onDone.
//
// A failed exchange reads as unmuted.
func (s *Synchronizer) Refresh(onDone func()) error {
	return s.send.Send(heos.CmdGetMute, "", func(reply string) {
		muted := heos.IsMuted(reply)
		if s.state.SetMuted(muted) {
			s.logger.Info("mute state refreshed", "muted", muted)
		}
		if onDone != nil {
			onDone()
		}
	})
}

// Set caches desired immediately and then tells the device.
//
// With no bound device the cache is left alone and command.ErrUnbound is
// returned.
func (s *Synchronizer) Set(desired bool) error {
	if !s.state.Identity().Bound() {
		return command.ErrUnbound
	}
	s.state.SetMuted(desired)
	return s.send.Send(heos.CmdSetMute, heos.MuteParams(desired), nil)
}

// Toggle flips the freshly refreshed state, never the cached one.
func (s *Synchronizer) Toggle() error {
	return s.Refresh(func() {
		if err := s.Set(!s.state.Muted()); err != nil {
			s.logger.Warn("toggle mute failed", "error", err.Error())
		}
	})
}
