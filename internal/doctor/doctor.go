// Package doctor runs runtime readiness diagnostics for config, preferences, the bound device, and desktop backends.
package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/heosctl/internal/audio"
	"github.com/rbright/heosctl/internal/config"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/ipc"
	"github.com/rbright/heosctl/internal/prefs"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Paths locates the state files doctor inspects.
type Paths struct {
	Prefs  string
	Socket string
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded, paths Paths) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("using defaults (%q not found)", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	identity := prefs.NewStore(nil, paths.Prefs, nil).Load()
	checks = append(checks, checkIdentity(identity, paths.Prefs))
	if identity.Bound() {
		checks = append(checks, checkReachable(ctx, identity, cfg.Config.Device))
	}

	if cfg.Config.ScreenShare.Enable {
		checks = append(checks, checkScreenShareBackend(cfg.Config.ScreenShare.Backend)...)
	}
	if cfg.Config.Indicator.Enable {
		checks = append(checks, checkIndicatorBackend(cfg.Config.Indicator.Backend))
		if cfg.Config.Indicator.SoundEnable {
			checks = append(checks, checkCueSink(ctx))
		}
	}

	checks = append(checks, checkDaemon(ctx, paths.Socket))
	return Report{Checks: checks}
}

// checkIdentity reports whether a device has been bound.
func checkIdentity(identity device.Identity, path string) Check {
	if !identity.Bound() {
		return Check{Name: "device", Pass: false, Message: fmt.Sprintf("no device bound in %q; run `heosctl connect`", path)}
	}
	return Check{Name: "device", Pass: true, Message: fmt.Sprintf("%s at %s (pid %s)", identity.Name, identity.Address, identity.PlayerID)}
}

// checkReachable dials the control port of the bound device.
func checkReachable(ctx context.Context, identity device.Identity, cfg config.DeviceConfig) Check {
	timeout := cfg.DialTimeout()
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	address := net.JoinHostPort(identity.Address, strconv.Itoa(cfg.Port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Check{Name: "device.reachable", Pass: false, Message: fmt.Sprintf("dial %s: %v", address, err)}
	}
	_ = conn.Close()
	return Check{Name: "device.reachable", Pass: true, Message: fmt.Sprintf("control port open at %s", address)}
}

func checkScreenShareBackend(backend string) []Check {
	switch backend {
	case "x11":
		return []Check{checkEnv("DISPLAY", nonEmpty, "X11 display detected", "DISPLAY is empty")}
	default:
		return []Check{
			checkEnv("HYPRLAND_INSTANCE_SIGNATURE", nonEmpty, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"),
			checkBinary("hyprctl", "screen-share monitor queries hyprctl clients"),
		}
	}
}

func checkIndicatorBackend(backend string) Check {
	if backend == "hypr" {
		return checkBinary("hyprctl", "indicator uses hyprctl notify")
	}
	return checkEnv("DBUS_SESSION_BUS_ADDRESS", nonEmpty, "session bus available for notifications", "DBUS_SESSION_BUS_ADDRESS is empty")
}

// listSinks is replaced in tests.
var listSinks = audio.ListSinks

// checkCueSink verifies that audio cues have an audible output.
func checkCueSink(ctx context.Context) Check {
	sinks, err := listSinks(ctx)
	if err != nil {
		return Check{Name: "audio.sink", Pass: false, Message: err.Error()}
	}
	sink, err := audio.CueSink(sinks)
	if err != nil {
		return Check{Name: "audio.sink", Pass: false, Message: err.Error()}
	}
	return Check{Name: "audio.sink", Pass: true, Message: fmt.Sprintf("cues play on %q (%s)", sink.ID, sink.State)}
}

// checkDaemon asks the control socket for status.
func checkDaemon(ctx context.Context, socketPath string) Check {
	if strings.TrimSpace(socketPath) == "" {
		return Check{Name: "daemon", Pass: false, Message: "runtime socket path unavailable"}
	}
	running, err := ipc.NewClient(socketPath, 300*time.Millisecond).Running(ctx)
	if err != nil {
		return Check{Name: "daemon", Pass: false, Message: err.Error()}
	}
	if !running {
		return Check{Name: "daemon", Pass: false, Message: fmt.Sprintf("not running at %s; start with `heosctl run`", socketPath)}
	}
	return Check{Name: "daemon", Pass: true, Message: fmt.Sprintf("answering at %s", socketPath)}
}

func nonEmpty(v string) bool {
	return strings.TrimSpace(v) != ""
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}
