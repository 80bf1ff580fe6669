package indicator

import (
	"fmt"
	"os"
	"strings"

	"github.com/rbright/heosctl/internal/device"
)

type locale string

const (
	localeEnglish locale = "en"
	localeGerman  locale = "de"
)

type messages struct {
	connectedFormat string
	notFound        string
	muted           string
	unmuted         string
	sharingStarted  string
	sharingStopped  string
	errorText       string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "de") {
		return localeGerman
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeGerman:
		return messages{
			connectedFormat: "Verbunden mit %s",
			notFound:        "Kein Gerät gefunden",
			muted:           "Stummgeschaltet",
			unmuted:         "Ton an",
			sharingStarted:  "Bildschirmfreigabe: stummgeschaltet",
			sharingStopped:  "Bildschirmfreigabe beendet",
			errorText:       "Gerätefehler",
		}
	default:
		return messages{
			connectedFormat: "Connected to %s",
			notFound:        "No device found",
			muted:           "Muted",
			unmuted:         "Unmuted",
			sharingStarted:  "Screen share: muted",
			sharingStopped:  "Screen share ended",
			errorText:       "Device error",
		}
	}
}

func (m messages) connected(name string) string {
	return fmt.Sprintf(m.connectedFormat, name)
}

func (m messages) toolbar(snap device.Snapshot) string {
	state := m.unmuted
	if snap.Muted {
		state = m.muted
	}
	return snap.Identity.Name + " · " + state
}
