package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/rbright/heosctl/internal/heos"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Device.Port <= 0 || cfg.Device.Port > 65535 {
		return nil, fmt.Errorf("device.port must be within 1..65535")
	}
	if cfg.Device.DialTimeoutMS <= 0 {
		return nil, fmt.Errorf("device.dial_timeout_ms must be > 0")
	}
	if cfg.Device.ReadTimeoutMS < 0 {
		return nil, fmt.Errorf("device.read_timeout_ms must be >= 0")
	}

	if _, _, err := net.SplitHostPort(cfg.Discovery.MulticastAddr); err != nil {
		return nil, fmt.Errorf("discovery.multicast_addr: %w", err)
	}
	if strings.TrimSpace(cfg.Discovery.SearchTarget) == "" {
		return nil, fmt.Errorf("discovery.search_target must not be empty")
	}
	if cfg.Discovery.WindowMS <= 0 {
		return nil, fmt.Errorf("discovery.window_ms must be > 0")
	}
	if cfg.Discovery.PollMS <= 0 {
		return nil, fmt.Errorf("discovery.poll_ms must be > 0")
	}
	if cfg.Discovery.SleepMS < 0 {
		return nil, fmt.Errorf("discovery.sleep_ms must be >= 0")
	}
	if strings.TrimSpace(cfg.Discovery.FamilyMarker) == "" {
		return nil, fmt.Errorf("discovery.family_marker must not be empty")
	}
	if len(cfg.Discovery.ModelMarkers) == 0 {
		return nil, fmt.Errorf("discovery.model_markers must not be empty")
	}
	if cfg.Discovery.MDNSFallback && strings.TrimSpace(cfg.Discovery.MDNSService) == "" {
		return nil, fmt.Errorf("discovery.mdns_service must not be empty when discovery.mdns_fallback=true")
	}

	if path := strings.TrimSpace(cfg.Prefs.Path); path != "" && filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("prefs.path must end in .json")
	}

	if cfg.Click.WindowMS <= 0 {
		return nil, fmt.Errorf("click.window_ms must be > 0")
	}

	shareBackend := strings.ToLower(strings.TrimSpace(cfg.ScreenShare.Backend))
	if shareBackend != "hypr" && shareBackend != "x11" {
		return nil, fmt.Errorf("screenshare.backend must be one of: hypr, x11")
	}
	if cfg.ScreenShare.IntervalMS <= 0 {
		return nil, fmt.Errorf("screenshare.interval_ms must be > 0")
	}
	if cfg.ScreenShare.Enable && (strings.TrimSpace(cfg.ScreenShare.AppMarker) == "" || strings.TrimSpace(cfg.ScreenShare.ShareMarker) == "") {
		return nil, fmt.Errorf("screenshare markers must not be empty when screenshare.enable=true")
	}
	if cfg.ScreenShare.IntervalMS < 500 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("screenshare.interval_ms=%d polls the window list very often", cfg.ScreenShare.IntervalMS)})
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.TimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.timeout_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Actions.Input) == "" {
		return nil, fmt.Errorf("actions.input must not be empty")
	}
	if !heos.ValidParamValue(cfg.Actions.Input) {
		return nil, fmt.Errorf("actions.input %q is not a valid input name", cfg.Actions.Input)
	}

	if listen := strings.TrimSpace(cfg.Control.HTTPListen); listen != "" {
		if _, _, err := net.SplitHostPort(listen); err != nil {
			return nil, fmt.Errorf("control.http_listen: %w", err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}
