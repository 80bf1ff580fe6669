package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/heosctl.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/heosctl.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantArg  string
		wantHelp bool
		wantJSON bool
		wantPath string
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help command", args: []string{"help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "config equals form", args: []string{"--config=/tmp/cfg", "run"}, wantCmd: CommandRun, wantPath: "/tmp/cfg"},
		{name: "json status", args: []string{"--json", "status"}, wantCmd: CommandStatus, wantJSON: true},
		{name: "input default", args: []string{"input"}, wantCmd: CommandInput},
		{name: "input named", args: []string{"input", "hdmi_arc_1"}, wantCmd: CommandInput, wantArg: "hdmi_arc_1"},
		{name: "click down", args: []string{"click", "down"}, wantCmd: CommandClick, wantArg: "down"},
		{name: "click double", args: []string{"click", "double"}, wantCmd: CommandClick, wantArg: "double"},
		{name: "toggle mute", args: []string{"toggle-mute"}, wantCmd: CommandToggleMute},
		{name: "click missing arg", args: []string{"click"}, wantErr: "click <down|double>"},
		{name: "click bad arg", args: []string{"click", "triple"}, wantErr: "click <down|double>"},
		{name: "input extra args", args: []string{"input", "a", "b"}, wantErr: "unexpected arguments"},
		{name: "config after command", args: []string{"status", "--config", "/tmp/cfg"}, wantErr: "unexpected arguments after command"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "needs an argument"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"bogus"}, wantErr: "unknown command"},
		{name: "extra args after command", args: []string{"doctor", "extra"}, wantErr: "unexpected arguments"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantArg, parsed.Arg)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantJSON, parsed.JSON)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
		})
	}
}

func TestForwardedCommands(t *testing.T) {
	for _, cmd := range []Command{CommandConnect, CommandStatus, CommandPlay, CommandInput, CommandClick, CommandToggleMute} {
		require.True(t, cmd.Forwarded(), cmd)
	}
	for _, cmd := range []Command{CommandRun, CommandDiscover, CommandWatch, CommandDoctor, CommandVersion, CommandHelp} {
		require.False(t, cmd.Forwarded(), cmd)
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("heosctl")
	for cmd := range validCommands {
		require.Contains(t, text, string(cmd))
	}
	require.Contains(t, text, "--config PATH")
	require.Contains(t, text, "config.jsonc")
}
