package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "zero port", mutate: func(c *Config) { c.Device.Port = 0 }, wantErr: "device.port"},
		{name: "port too large", mutate: func(c *Config) { c.Device.Port = 70000 }, wantErr: "device.port"},
		{name: "zero dial timeout", mutate: func(c *Config) { c.Device.DialTimeoutMS = 0 }, wantErr: "dial_timeout_ms"},
		{name: "negative read timeout", mutate: func(c *Config) { c.Device.ReadTimeoutMS = -1 }, wantErr: "read_timeout_ms"},
		{name: "multicast without port", mutate: func(c *Config) { c.Discovery.MulticastAddr = "239.255.255.250" }, wantErr: "multicast_addr"},
		{name: "empty search target", mutate: func(c *Config) { c.Discovery.SearchTarget = " " }, wantErr: "search_target"},
		{name: "zero window", mutate: func(c *Config) { c.Discovery.WindowMS = 0 }, wantErr: "discovery.window_ms"},
		{name: "zero poll", mutate: func(c *Config) { c.Discovery.PollMS = 0 }, wantErr: "poll_ms"},
		{name: "negative sleep", mutate: func(c *Config) { c.Discovery.SleepMS = -1 }, wantErr: "sleep_ms"},
		{name: "empty family marker", mutate: func(c *Config) { c.Discovery.FamilyMarker = "" }, wantErr: "family_marker"},
		{name: "no model markers", mutate: func(c *Config) { c.Discovery.ModelMarkers = nil }, wantErr: "model_markers"},
		{name: "mdns without service", mutate: func(c *Config) {
			c.Discovery.MDNSFallback = true
			c.Discovery.MDNSService = ""
		}, wantErr: "mdns_service"},
		{name: "prefs not json", mutate: func(c *Config) { c.Prefs.Path = "/tmp/prefs.ini" }, wantErr: "prefs.path"},
		{name: "zero click window", mutate: func(c *Config) { c.Click.WindowMS = 0 }, wantErr: "click.window_ms"},
		{name: "bad share backend", mutate: func(c *Config) { c.ScreenShare.Backend = "wayland" }, wantErr: "screenshare.backend"},
		{name: "zero share interval", mutate: func(c *Config) { c.ScreenShare.IntervalMS = 0 }, wantErr: "screenshare.interval_ms"},
		{name: "empty share marker", mutate: func(c *Config) { c.ScreenShare.ShareMarker = "" }, wantErr: "screenshare markers"},
		{name: "bad indicator backend", mutate: func(c *Config) { c.Indicator.Backend = "tray" }, wantErr: "indicator.backend"},
		{name: "desktop without app name", mutate: func(c *Config) { c.Indicator.DesktopAppName = "" }, wantErr: "desktop_app_name"},
		{name: "negative indicator timeout", mutate: func(c *Config) { c.Indicator.TimeoutMS = -1 }, wantErr: "indicator.timeout_ms"},
		{name: "empty input", mutate: func(c *Config) { c.Actions.Input = "" }, wantErr: "actions.input"},
		{name: "input with line break", mutate: func(c *Config) { c.Actions.Input = "aux\r\nheos://player/set_mute" }, wantErr: "valid input name"},
		{name: "bad listen", mutate: func(c *Config) { c.Control.HTTPListen = "localhost" }, wantErr: "http_listen"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateDisabledScreenShareAllowsEmptyMarkers(t *testing.T) {
	cfg := Default()
	cfg.ScreenShare.Enable = false
	cfg.ScreenShare.AppMarker = ""
	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestValidateWarnsOnTightScreenSharePolling(t *testing.T) {
	cfg := Default()
	cfg.ScreenShare.IntervalMS = 100
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "screenshare.interval_ms")
}
