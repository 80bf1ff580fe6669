// Package indicator surfaces device state changes as notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/heosctl/internal/config"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/hypr"
)

// Notifier is the daemon-facing indicator contract.
type Notifier interface {
	ShowConnected(context.Context, device.Identity)
	ShowNotFound(context.Context)
	ShowMuted(context.Context, bool)
	ShowToolbar(context.Context, device.Snapshot)
	ShowSharing(context.Context, bool)
	ShowError(context.Context, string)
	Hide(context.Context)
}

// Noop discards every indication.
type Noop struct{}

func (Noop) ShowConnected(context.Context, device.Identity) {}
func (Noop) ShowNotFound(context.Context)                   {}
func (Noop) ShowMuted(context.Context, bool)                {}
func (Noop) ShowToolbar(context.Context, device.Snapshot)   {}
func (Noop) ShowSharing(context.Context, bool)              {}
func (Noop) ShowError(context.Context, string)              {}
func (Noop) Hide(context.Context)                           {}

const (
	iconWarning = 0
	iconInfo    = 1
	iconError   = 3
	iconOK      = 5

	colorInfo  = "rgb(89b4fa)"
	colorOK    = "rgb(a6e3a1)"
	colorMuted = "rgb(f9e2af)"
	colorError = "rgb(f38ba8)"
)

// Indicator routes notifications through Hyprland or desktop D-Bus per config.
type Indicator struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// New creates an indicator from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Indicator {
	return &Indicator{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// ShowConnected announces a newly bound device.
func (i *Indicator) ShowConnected(ctx context.Context, identity device.Identity) {
	i.playCue(cueConnected)
	i.show(ctx, iconOK, colorOK, i.messages.connected(identity.Name))
}

// ShowNotFound reports a discovery run that found nothing.
func (i *Indicator) ShowNotFound(ctx context.Context) {
	i.playCue(cueNotFound)
	i.show(ctx, iconWarning, colorMuted, i.messages.notFound)
}

// ShowMuted reports a mute state change.
func (i *Indicator) ShowMuted(ctx context.Context, muted bool) {
	if muted {
		i.playCue(cueMute)
		i.show(ctx, iconInfo, colorMuted, i.messages.muted)
		return
	}
	i.playCue(cueUnmute)
	i.show(ctx, iconInfo, colorInfo, i.messages.unmuted)
}

// ShowToolbar displays the device summary a toolbar would show.
func (i *Indicator) ShowToolbar(ctx context.Context, snap device.Snapshot) {
	i.show(ctx, iconInfo, colorInfo, i.messages.toolbar(snap))
}

// ShowSharing reports a screen-share edge.
func (i *Indicator) ShowSharing(ctx context.Context, sharing bool) {
	if sharing {
		i.show(ctx, iconInfo, colorMuted, i.messages.sharingStarted)
		return
	}
	i.show(ctx, iconInfo, colorInfo, i.messages.sharingStopped)
}

// ShowError displays an error message.
func (i *Indicator) ShowError(ctx context.Context, text string) {
	if text == "" {
		text = i.messages.errorText
	}
	i.show(ctx, iconError, colorError, text)
}

// Hide dismisses the active notification.
func (i *Indicator) Hide(ctx context.Context) {
	if !i.cfg.Enable {
		return
	}
	i.run(ctx, i.dismiss)
}

func (i *Indicator) show(ctx context.Context, icon int, color string, text string) {
	if !i.cfg.Enable {
		return
	}
	timeout := i.cfg.TimeoutMS
	if timeout <= 0 {
		timeout = 1600
	}
	i.run(ctx, func(ctx context.Context) error {
		return i.notify(ctx, icon, timeout, color, text)
	})
}

func (i *Indicator) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(i.cfg.Backend), "desktop")
}

func (i *Indicator) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if i.desktopBackend() {
		return i.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (i *Indicator) dismiss(ctx context.Context) error {
	if i.desktopBackend() {
		return i.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop replaces the previous desktop notification so indications do not stack.
func (i *Indicator) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	i.mu.Lock()
	replaceID := i.desktopNotificationID
	i.mu.Unlock()

	appName := strings.TrimSpace(i.cfg.DesktopAppName)
	if appName == "" {
		appName = "heosctl"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	i.mu.Lock()
	i.desktopNotificationID = id
	i.mu.Unlock()
	return nil
}

func (i *Indicator) dismissDesktop(ctx context.Context) error {
	i.mu.Lock()
	id := i.desktopNotificationID
	i.desktopNotificationID = 0
	i.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

func (i *Indicator) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		i.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (i *Indicator) playCue(kind cueKind) {
	if !i.cfg.SoundEnable {
		return
	}
	go func() {
		i.soundMu.Lock()
		defer i.soundMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := emitCue(ctx, kind); err != nil {
			i.log("indicator audio cue failed", err)
		}
	}()
}

func (i *Indicator) log(message string, err error) {
	if i.logger == nil || err == nil {
		return
	}
	i.logger.Debug(message, "error", err.Error())
}
