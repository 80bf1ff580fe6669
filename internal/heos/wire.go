// Package heos speaks the line-oriented heos:// TCP control protocol.
package heos

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultPort is the device control port.
	DefaultPort = 1255

	// CommandReplyLimit bounds a single command reply read.
	CommandReplyLimit = 1023
	// DirectoryReplyLimit bounds the get_players reply read.
	DirectoryReplyLimit = 8 * 1024

	commandPrefix = "heos://player/"
	lineEnding    = "\r\n"
)

// Player command names used by the controller.
const (
	CmdGetPlayers   = "get_players"
	CmdSetPlayState = "set_play_state"
	CmdVolumeUp     = "volume_up"
	CmdVolumeDown   = "volume_down"
	CmdPlayInput    = "play_input"
	CmdGetMute      = "get_mute"
	CmdSetMute      = "set_mute"
)

// ErrMalformedCommand marks a command segment that cannot be framed safely.
var ErrMalformedCommand = errors.New("malformed command")

var (
	commandNamePattern = regexp.MustCompile(`^[a-z_]+$`)
	playerIDPattern    = regexp.MustCompile(`^-?[0-9]+$`)
	paramClausePattern = regexp.MustCompile(`^[a-z_]+=[A-Za-z0-9_.:-]+$`)
)

// ValidParamValue reports whether value can stand as the right-hand side of
// one query clause.
func ValidParamValue(value string) bool {
	return paramClausePattern.MatchString("v=" + value)
}

// FormatCommand renders one CRLF-terminated command line.
//
// The first query clause is introduced by '?', the params clause by '&'.
// params is at most one key=value clause with a token value; line breaks
// and query delimiters inside any segment fail with ErrMalformedCommand.
func FormatCommand(name, pid, params string) (string, error) {
	if !commandNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: command name %q", ErrMalformedCommand, name)
	}
	if pid != "" && !playerIDPattern.MatchString(pid) {
		return "", fmt.Errorf("%w: player id %q", ErrMalformedCommand, pid)
	}
	if params != "" && !paramClausePattern.MatchString(params) {
		return "", fmt.Errorf("%w: params %q", ErrMalformedCommand, params)
	}

	var b strings.Builder
	b.WriteString(commandPrefix)
	b.WriteString(name)

	sep := "?"
	if pid != "" {
		b.WriteString(sep)
		b.WriteString("pid=")
		b.WriteString(pid)
		sep = "&"
	}
	if params != "" {
		b.WriteString(sep)
		b.WriteString(params)
	}
	b.WriteString(lineEnding)
	return b.String(), nil
}

// IsMuted reports whether a get_mute/set_mute reply carries the muted state.
func IsMuted(reply string) bool {
	return strings.Contains(reply, "state=on")
}

// MuteParams renders the set_mute state clause.
func MuteParams(muted bool) string {
	if muted {
		return "state=on"
	}
	return "state=off"
}
