// Package daemon routes control requests to the device engine and publishes state changes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/heosctl/internal/click"
	"github.com/rbright/heosctl/internal/command"
	"github.com/rbright/heosctl/internal/connection"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/events"
	"github.com/rbright/heosctl/internal/fsm"
	"github.com/rbright/heosctl/internal/heos"
	"github.com/rbright/heosctl/internal/indicator"
	"github.com/rbright/heosctl/internal/ipc"
	"github.com/sourcegraph/conc"
)

// Sender dispatches one player command.
type Sender interface {
	Send(name string, params string, onResponse func(string)) error
	Wait()
}

// Muter reads and writes the device mute state.
type Muter interface {
	Refresh(onDone func()) error
	Set(desired bool) error
	Toggle() error
}

// Connector binds the controller to a device.
type Connector interface {
	Run(ctx context.Context) connection.Result
	Validate()
	Wait()
}

// Runner is a loop that lives until its context ends.
type Runner interface {
	Run(ctx context.Context)
}

// Deps wires a Controller. Nil Indicator and Bus fall back to no-ops.
type Deps struct {
	Logger      *slog.Logger
	State       *device.State
	Commands    Sender
	Mute        Muter
	Connector   Connector
	Indicator   indicator.Notifier
	Bus         *events.Bus
	Monitor     Runner
	ClickWindow time.Duration
	Input       string
}

// Controller is the single request handler shared by the IPC socket and HTTP surface.
type Controller struct {
	logger    *slog.Logger
	state     *device.State
	commands  Sender
	mute      Muter
	connector Connector
	indicator indicator.Notifier
	bus       *events.Bus
	monitor   Runner
	clicks    *click.Disambiguator
	input     string
}

// NewController builds a controller and subscribes it to device state changes.
func NewController(deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Indicator == nil {
		deps.Indicator = indicator.Noop{}
	}
	if deps.Bus == nil {
		deps.Bus = &events.Bus{}
	}
	if strings.TrimSpace(deps.Input) == "" {
		deps.Input = "optical_in_1"
	}

	c := &Controller{
		logger:    deps.Logger,
		state:     deps.State,
		commands:  deps.Commands,
		mute:      deps.Mute,
		connector: deps.Connector,
		indicator: deps.Indicator,
		bus:       deps.Bus,
		monitor:   deps.Monitor,
		input:     deps.Input,
	}
	c.clicks = click.New(deps.ClickWindow, c.dispatchIntent, deps.Logger)
	c.state.OnChange(c.stateChanged)
	return c
}

// Bus returns the event bus state changes are published on.
func (c *Controller) Bus() *events.Bus {
	return c.bus
}

// Snapshot returns the current device state.
func (c *Controller) Snapshot() device.Snapshot {
	return c.state.Snapshot()
}

// Run validates once at startup, runs the monitor, and drains in-flight work when ctx ends.
func (c *Controller) Run(ctx context.Context) error {
	var wg conc.WaitGroup
	c.connector.Validate()
	if c.monitor != nil {
		wg.Go(func() { c.monitor.Run(ctx) })
	}

	<-ctx.Done()

	if recovered := wg.WaitAndRecover(); recovered != nil {
		c.logger.Error("monitor panicked", "panic", recovered.String())
	}
	c.connector.Wait()
	c.commands.Wait()
	c.indicator.Hide(context.Background())
	c.logger.Info("daemon stopped")
	return nil
}

// ObserveValidation reports a finished connection validation.
func (c *Controller) ObserveValidation(result connection.Result) {
	detail := "not found"
	if result.Found {
		detail = result.Identity.Name
	} else {
		c.indicator.ShowNotFound(context.Background())
	}
	c.publish(events.KindValidation, detail)
}

// ObserveSharing reports a screen-share edge.
func (c *Controller) ObserveSharing(sharing bool) {
	c.indicator.ShowSharing(context.Background(), sharing)
	c.publish(events.KindScreenShare, fmt.Sprintf("%t", sharing))
}

// Handle serves one control request.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	name := strings.ToLower(strings.TrimSpace(req.Command))
	arg := strings.TrimSpace(req.Arg)
	c.logger.Debug("control request", "command", name, "arg", arg)

	switch name {
	case "status":
		return c.ok("status")
	case "connect":
		result := c.connector.Run(ctx)
		if !result.Found {
			return c.fail(errors.New("no device found"))
		}
		return c.ok(fmt.Sprintf("connected to %s", result.Identity.Name))
	case "play":
		return c.send(heos.CmdSetPlayState, "state=play")
	case "pause":
		return c.send(heos.CmdSetPlayState, "state=pause")
	case "volume-up":
		return c.send(heos.CmdVolumeUp, "")
	case "volume-down":
		return c.send(heos.CmdVolumeDown, "")
	case "input":
		if arg == "" {
			arg = c.input
		}
		if !heos.ValidParamValue(arg) {
			return c.fail(fmt.Errorf("invalid input name %q", arg))
		}
		return c.send(heos.CmdPlayInput, "input="+arg)
	case "mute":
		return c.result("muted", c.mute.Set(true))
	case "unmute":
		return c.result("unmuted", c.mute.Set(false))
	case "toggle-mute":
		return c.result("toggle requested", c.mute.Toggle())
	case "click":
		return c.click(arg)
	default:
		return c.fail(fmt.Errorf("unknown command: %s", req.Command))
	}
}

func (c *Controller) click(arg string) ipc.Response {
	switch arg {
	case "down":
		c.clicks.PrimaryDown()
	case "double":
		c.clicks.DoubleClick()
	default:
		return c.fail(fmt.Errorf("click expects down or double, got %q", arg))
	}
	return c.ok(string(c.clicks.State()))
}

func (c *Controller) send(name string, params string) ipc.Response {
	return c.result(name+" sent", c.commands.Send(name, params, nil))
}

func (c *Controller) dispatchIntent(intent fsm.Intent) {
	c.publish(events.KindIntent, string(intent))

	switch intent {
	case fsm.IntentToggleMute:
		if err := c.mute.Toggle(); err != nil {
			c.logger.Info("toggle mute skipped", "error", err.Error())
			c.indicator.ShowError(context.Background(), "")
		}
	case fsm.IntentOpenToolbar:
		c.indicator.ShowToolbar(context.Background(), c.state.Snapshot())
	}
}

func (c *Controller) stateChanged(kind device.ChangeKind, snap device.Snapshot) {
	switch kind {
	case device.ChangeIdentity:
		c.publish(events.KindIdentity, snap.Identity.Name)
		if snap.Identity.Bound() {
			c.indicator.ShowConnected(context.Background(), snap.Identity)
		}
	case device.ChangeMute:
		c.publish(events.KindMute, fmt.Sprintf("%t", snap.Muted))
		c.indicator.ShowMuted(context.Background(), snap.Muted)
	}
}

func (c *Controller) publish(kind events.Kind, detail string) {
	c.bus.Publish(events.Event{Kind: kind, Detail: detail, State: c.state.Snapshot()})
}

func (c *Controller) result(message string, err error) ipc.Response {
	if err != nil {
		return c.fail(err)
	}
	return c.ok(message)
}

func (c *Controller) ok(message string) ipc.Response {
	snap := c.state.Snapshot()
	return ipc.Response{OK: true, State: string(snap.Connection), Message: message, Device: &snap}
}

func (c *Controller) fail(err error) ipc.Response {
	snap := c.state.Snapshot()
	text := err.Error()
	if errors.Is(err, command.ErrUnbound) {
		text = "no device bound; run `heosctl connect`"
	}
	return ipc.Response{OK: false, State: string(snap.Connection), Error: text, Device: &snap}
}
