// Package config resolves, parses, validates, and defaults heosctl configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by heosctl.
type Config struct {
	Device      DeviceConfig
	Discovery   DiscoveryConfig
	Prefs       PrefsConfig
	Click       ClickConfig
	ScreenShare ScreenShareConfig
	Indicator   IndicatorConfig
	Actions     ActionsConfig
	Control     ControlConfig
	Log         LogConfig
}

// DeviceConfig controls the TCP control-protocol session.
type DeviceConfig struct {
	Port          int
	DialTimeoutMS int
	// ReadTimeoutMS of zero leaves command receives unbounded.
	ReadTimeoutMS int
}

// DiscoveryConfig controls the SSDP search, its collection window, and reply ranking.
type DiscoveryConfig struct {
	MulticastAddr    string
	SearchTarget     string
	WindowMS         int
	PollMS           int
	SleepMS          int
	FamilyMarker     string
	AlternateMarkers []string
	ModelMarkers     []string
	MDNSFallback     bool
	MDNSService      string
}

// PrefsConfig locates the persisted device identity.
type PrefsConfig struct {
	Path string
}

// ClickConfig controls single/double click disambiguation.
type ClickConfig struct {
	WindowMS int
}

// ScreenShareConfig controls the conferencing screen-share auto-mute monitor.
type ScreenShareConfig struct {
	Enable      bool
	Backend     string
	IntervalMS  int
	AppMarker   string
	ShareMarker string
}

// IndicatorConfig controls notifications and audio cues.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	TimeoutMS      int
}

// ActionsConfig holds parameters of the fixed toolbar actions.
type ActionsConfig struct {
	Input string
}

// ControlConfig controls the optional loopback HTTP/websocket surface.
type ControlConfig struct {
	HTTPListen string
}

// LogConfig controls runtime log verbosity.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (c DeviceConfig) DialTimeout() time.Duration { return millis(c.DialTimeoutMS) }
func (c DeviceConfig) ReadTimeout() time.Duration { return millis(c.ReadTimeoutMS) }

func (c DiscoveryConfig) Window() time.Duration       { return millis(c.WindowMS) }
func (c DiscoveryConfig) PollInterval() time.Duration { return millis(c.PollMS) }
func (c DiscoveryConfig) Sleep() time.Duration        { return millis(c.SleepMS) }

func (c ClickConfig) Window() time.Duration { return millis(c.WindowMS) }

func (c ScreenShareConfig) Interval() time.Duration { return millis(c.IntervalMS) }
