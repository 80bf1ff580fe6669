// Package cli parses heosctl command lines.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

type Command string

const (
	CommandRun        Command = "run"
	CommandConnect    Command = "connect"
	CommandDiscover   Command = "discover"
	CommandStatus     Command = "status"
	CommandPlay       Command = "play"
	CommandPause      Command = "pause"
	CommandMute       Command = "mute"
	CommandUnmute     Command = "unmute"
	CommandToggleMute Command = "toggle-mute"
	CommandVolumeUp   Command = "volume-up"
	CommandVolumeDown Command = "volume-down"
	CommandInput      Command = "input"
	CommandClick      Command = "click"
	CommandWatch      Command = "watch"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// argRule bounds how many positional arguments a command accepts.
type argRule struct {
	min, max int
	usage    string
}

var validCommands = map[Command]argRule{
	CommandRun:        {},
	CommandConnect:    {},
	CommandDiscover:   {},
	CommandStatus:     {},
	CommandPlay:       {},
	CommandPause:      {},
	CommandMute:       {},
	CommandUnmute:     {},
	CommandToggleMute: {},
	CommandVolumeUp:   {},
	CommandVolumeDown: {},
	CommandInput:      {max: 1, usage: "input [NAME]"},
	CommandClick:      {min: 1, max: 1, usage: "click <down|double>"},
	CommandWatch:      {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

// Forwarded reports whether the command is served by the running daemon.
func (c Command) Forwarded() bool {
	switch c {
	case CommandConnect, CommandStatus, CommandPlay, CommandPause, CommandMute, CommandUnmute,
		CommandToggleMute, CommandVolumeUp, CommandVolumeDown, CommandInput, CommandClick:
		return true
	}
	return false
}

type Parsed struct {
	Command    Command
	Arg        string
	ConfigPath string
	JSON       bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	flags := pflag.NewFlagSet("heosctl", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.SetInterspersed(false)

	configPath := flags.String("config", "", "config file path")
	jsonOut := flags.Bool("json", false, "print machine-readable output")
	help := flags.BoolP("help", "h", false, "show help")
	showVersion := flags.Bool("version", false, "show version")

	if err := flags.Parse(args); err != nil {
		return Parsed{}, err
	}

	parsed := Parsed{ConfigPath: *configPath, JSON: *jsonOut}
	switch {
	case *help:
		parsed.Command, parsed.ShowHelp = CommandHelp, true
		return parsed, nil
	case *showVersion:
		parsed.Command = CommandVersion
		return parsed, nil
	}

	rest := flags.Args()
	if len(rest) == 0 {
		parsed.Command, parsed.ShowHelp = CommandHelp, true
		return parsed, nil
	}

	cmd := Command(rest[0])
	rule, ok := validCommands[cmd]
	if !ok {
		if strings.HasPrefix(rest[0], "-") {
			return Parsed{}, fmt.Errorf("unknown flag: %s", rest[0])
		}
		return Parsed{}, fmt.Errorf("unknown command: %s", rest[0])
	}

	positional := rest[1:]
	if len(positional) > rule.max {
		return Parsed{}, fmt.Errorf("unexpected arguments after command %q", cmd)
	}
	if len(positional) < rule.min {
		return Parsed{}, fmt.Errorf("usage: heosctl %s", rule.usage)
	}
	if cmd == CommandClick && positional[0] != "down" && positional[0] != "double" {
		return Parsed{}, fmt.Errorf("usage: heosctl %s", rule.usage)
	}

	parsed.Command = cmd
	parsed.ShowHelp = cmd == CommandHelp
	if len(positional) == 1 {
		parsed.Arg = positional[0]
	}
	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--json] <command> [ARG]

Commands:
  run            Start the controller daemon
  connect        Rediscover and bind the first player on the network
  discover       Search the network once and list players (no daemon needed)
  status         Print the bound device and mute state
  play           Resume playback
  pause          Pause playback
  mute           Mute the device
  unmute         Unmute the device
  toggle-mute    Toggle mute from the device's current state
  volume-up      Step volume up
  volume-down    Step volume down
  input [NAME]   Switch input (default from config, e.g. optical_in_1)
  click <down|double>
                 Feed a tray click into the click disambiguator
  watch          Stream daemon events as JSON lines
  doctor         Run configuration and environment checks
  version        Print version information
  help           Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/heosctl/config.jsonc)
  --json          Print responses as JSON
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
