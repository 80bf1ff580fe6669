package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Device      *jsoncDevice      `json:"device"`
	Discovery   *jsoncDiscovery   `json:"discovery"`
	Prefs       *jsoncPrefs       `json:"prefs"`
	Click       *jsoncClick       `json:"click"`
	ScreenShare *jsoncScreenShare `json:"screenshare"`
	Indicator   *jsoncIndicator   `json:"indicator"`
	Actions     *jsoncActions     `json:"actions"`
	Control     *jsoncControl     `json:"control"`
	Log         *jsoncLog         `json:"log"`
}

type jsoncDevice struct {
	Port          *int `json:"port"`
	DialTimeoutMS *int `json:"dial_timeout_ms"`
	ReadTimeoutMS *int `json:"read_timeout_ms"`
}

type jsoncDiscovery struct {
	MulticastAddr    *string          `json:"multicast_addr"`
	SearchTarget     *string          `json:"search_target"`
	WindowMS         *int             `json:"window_ms"`
	PollMS           *int             `json:"poll_ms"`
	SleepMS          *int             `json:"sleep_ms"`
	FamilyMarker     *string          `json:"family_marker"`
	AlternateMarkers *jsoncStringList `json:"alternate_markers"`
	ModelMarkers     *jsoncStringList `json:"model_markers"`
	MDNSFallback     *bool            `json:"mdns_fallback"`
	MDNSService      *string          `json:"mdns_service"`
}

type jsoncPrefs struct {
	Path *string `json:"path"`
}

type jsoncClick struct {
	WindowMS *int `json:"window_ms"`
}

type jsoncScreenShare struct {
	Enable      *bool   `json:"enable"`
	Backend     *string `json:"backend"`
	IntervalMS  *int    `json:"interval_ms"`
	AppMarker   *string `json:"app_marker"`
	ShareMarker *string `json:"share_marker"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	TimeoutMS      *int    `json:"timeout_ms"`
}

type jsoncActions struct {
	Input *string `json:"input"`
}

type jsoncControl struct {
	HTTPListen *string `json:"http_listen"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

// jsoncStringList accepts either a JSON string array or a comma-delimited string.
type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = trimNonEmpty(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimNonEmpty(strings.Split(single, ","))
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if d := payload.Device; d != nil {
		setInt(&cfg.Device.Port, d.Port)
		setInt(&cfg.Device.DialTimeoutMS, d.DialTimeoutMS)
		setInt(&cfg.Device.ReadTimeoutMS, d.ReadTimeoutMS)
	}

	if d := payload.Discovery; d != nil {
		setString(&cfg.Discovery.MulticastAddr, d.MulticastAddr)
		setString(&cfg.Discovery.SearchTarget, d.SearchTarget)
		setInt(&cfg.Discovery.WindowMS, d.WindowMS)
		setInt(&cfg.Discovery.PollMS, d.PollMS)
		setInt(&cfg.Discovery.SleepMS, d.SleepMS)
		setString(&cfg.Discovery.FamilyMarker, d.FamilyMarker)
		if d.AlternateMarkers != nil {
			cfg.Discovery.AlternateMarkers = []string(*d.AlternateMarkers)
		}
		if d.ModelMarkers != nil {
			cfg.Discovery.ModelMarkers = []string(*d.ModelMarkers)
		}
		setBool(&cfg.Discovery.MDNSFallback, d.MDNSFallback)
		setString(&cfg.Discovery.MDNSService, d.MDNSService)
	}

	if p := payload.Prefs; p != nil {
		setString(&cfg.Prefs.Path, p.Path)
	}

	if c := payload.Click; c != nil {
		setInt(&cfg.Click.WindowMS, c.WindowMS)
	}

	if s := payload.ScreenShare; s != nil {
		setBool(&cfg.ScreenShare.Enable, s.Enable)
		setString(&cfg.ScreenShare.Backend, s.Backend)
		setInt(&cfg.ScreenShare.IntervalMS, s.IntervalMS)
		setString(&cfg.ScreenShare.AppMarker, s.AppMarker)
		setString(&cfg.ScreenShare.ShareMarker, s.ShareMarker)
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setInt(&cfg.Indicator.TimeoutMS, i.TimeoutMS)
	}

	if a := payload.Actions; a != nil {
		setString(&cfg.Actions.Input, a.Input)
	}

	if c := payload.Control; c != nil {
		setString(&cfg.Control.HTTPListen, c.HTTPListen)
	}

	if l := payload.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64 = -1

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	if offset < 0 {
		return err
	}

	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	if int(offset) > len(content) {
		offset = int64(len(content))
	}

	prefix := content[:offset-1]
	line := strings.Count(prefix, "\n") + 1
	col := len(prefix) - strings.LastIndex(prefix, "\n")
	return line, col
}
