package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Port:          1255,
			DialTimeoutMS: 3000,
		},
		Discovery: DiscoveryConfig{
			MulticastAddr:    "239.255.255.250:1900",
			SearchTarget:     "urn:schemas-denon-com:device:ACT-Denon:1",
			WindowMS:         5000,
			PollMS:           100,
			SleepMS:          10,
			FamilyMarker:     "HEOS",
			AlternateMarkers: []string{"Denon", "DENON"},
			ModelMarkers:     []string{"HEOS Bar", "HEOS_Bar"},
			MDNSService:      "_heos-audio._tcp",
		},
		Click: ClickConfig{WindowMS: 100},
		ScreenShare: ScreenShareConfig{
			Enable:      true,
			Backend:     "hypr",
			IntervalMS:  2000,
			AppMarker:   "Zoom",
			ShareMarker: "Sharing",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "desktop",
			DesktopAppName: "heosctl",
			SoundEnable:    true,
			TimeoutMS:      1600,
		},
		Actions: ActionsConfig{Input: "optical_in_1"},
		Log:     LogConfig{Level: "info"},
	}
}
