// Package app dispatches parsed CLI commands to the daemon, one-shot tools, and diagnostics.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/heosctl/internal/cli"
	"github.com/rbright/heosctl/internal/config"
	"github.com/rbright/heosctl/internal/doctor"
	"github.com/rbright/heosctl/internal/ipc"
	"github.com/rbright/heosctl/internal/logging"
	"github.com/rbright/heosctl/internal/prefs"
	"github.com/rbright/heosctl/internal/version"
)

const (
	binaryName     = "heosctl"
	forwardTimeout = 2 * time.Second
	// connectSlack covers the directory query and dial that follow the discovery window.
	connectSlack = 3 * time.Second
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if cfgLoaded.Exists {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	if err := logRuntime.SetLevel(cfgLoaded.Config.Log.Level); err != nil {
		logger.Warn("invalid log level", "error", err.Error())
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch {
	case parsed.Command == cli.CommandDoctor:
		return r.commandDoctor(ctx, cfgLoaded)
	case parsed.Command == cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	case parsed.Command == cli.CommandDiscover:
		return r.commandDiscover(ctx, cfgLoaded.Config, logger, parsed.JSON)
	case parsed.Command == cli.CommandWatch:
		return r.commandWatch(ctx, cfgLoaded.Config)
	case parsed.Command.Forwarded():
		return r.forwardOrFail(ctx, cfgLoaded.Config, parsed)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDoctor(ctx context.Context, cfgLoaded config.Loaded) int {
	socketPath, _ := ipc.RuntimeSocketPath()
	prefsPath, err := resolvePrefsPath(cfgLoaded.Config)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	report := doctor.Run(ctx, cfgLoaded, doctor.Paths{Prefs: prefsPath, Socket: socketPath})
	fmt.Fprintln(r.Stdout, report.String())
	if report.OK() {
		return 0
	}
	return 1
}

func (r Runner) forwardOrFail(ctx context.Context, cfg config.Config, parsed cli.Parsed) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	req := ipc.Request{Command: string(parsed.Command), Arg: parsed.Arg}
	resp, handled, err := tryForward(ctx, socketPath, req, forwardTimeoutFor(parsed.Command, cfg))
	if !handled {
		fmt.Fprintf(r.Stderr, "error: heosctl daemon is not running; start it with `heosctl run`\n")
		return 1
	}

	if parsed.JSON {
		_ = json.NewEncoder(r.Stdout).Encode(resp)
	} else if err == nil {
		r.printResponse(parsed.Command, resp)
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (r Runner) printResponse(cmd cli.Command, resp ipc.Response) {
	if cmd == cli.CommandStatus && resp.Device != nil {
		muted := "unmuted"
		if resp.Device.Muted {
			muted = "muted"
		}
		id := resp.Device.Identity
		if resp.Device.Identity.Address == "" {
			fmt.Fprintf(r.Stdout, "%s: %s\n", resp.State, id.Name)
			return
		}
		fmt.Fprintf(r.Stdout, "%s: %s (%s, pid %s) %s\n", resp.State, id.Name, id.Address, id.PlayerID, muted)
		return
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
}

// forwardTimeoutFor gives connect long enough to outlast a full discovery run.
func forwardTimeoutFor(cmd cli.Command, cfg config.Config) time.Duration {
	if cmd == cli.CommandConnect {
		return cfg.Discovery.Window() + cfg.Device.DialTimeout() + connectSlack
	}
	return forwardTimeout
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.NewClient(socketPath, timeout).Do(ctx, req)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if errors.Is(err, ipc.ErrDaemonUnavailable) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func resolvePrefsPath(cfg config.Config) (string, error) {
	if path := strings.TrimSpace(cfg.Prefs.Path); path != "" {
		return path, nil
	}
	return prefs.DefaultPath()
}
