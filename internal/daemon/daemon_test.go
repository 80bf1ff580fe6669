package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rbright/heosctl/internal/click"
	"github.com/rbright/heosctl/internal/command"
	"github.com/rbright/heosctl/internal/connection"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/events"
	"github.com/rbright/heosctl/internal/ipc"
	"github.com/stretchr/testify/require"
)

type sentCommand struct {
	Name   string
	Params string
}

type fakeSender struct {
	mu      sync.Mutex
	unbound bool
	sent    []sentCommand
	waits   int
}

func (f *fakeSender) Send(name string, params string, _ func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unbound {
		return command.ErrUnbound
	}
	f.sent = append(f.sent, sentCommand{Name: name, Params: params})
	return nil
}

func (f *fakeSender) Wait() {
	f.mu.Lock()
	f.waits++
	f.mu.Unlock()
}

type fakeMuter struct {
	mu        sync.Mutex
	state     *device.State
	sets      []bool
	toggles   int
	toggleErr error
}

func (f *fakeMuter) Refresh(onDone func()) error {
	if onDone != nil {
		onDone()
	}
	return nil
}

func (f *fakeMuter) Set(desired bool) error {
	f.mu.Lock()
	f.sets = append(f.sets, desired)
	f.mu.Unlock()
	f.state.SetMuted(desired)
	return nil
}

func (f *fakeMuter) Toggle() error {
	f.mu.Lock()
	f.toggles++
	f.mu.Unlock()
	return f.toggleErr
}

func (f *fakeMuter) Toggles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles
}

type fakeConnector struct {
	mu        sync.Mutex
	result    connection.Result
	validates int
	waits     int
}

func (f *fakeConnector) Run(context.Context) connection.Result { return f.result }

func (f *fakeConnector) Validate() {
	f.mu.Lock()
	f.validates++
	f.mu.Unlock()
}

func (f *fakeConnector) Wait() {
	f.mu.Lock()
	f.waits++
	f.mu.Unlock()
}

type recordingIndicator struct {
	mu        sync.Mutex
	connected []string
	notFound  int
	muted     []bool
	toolbars  int
	sharing   []bool
	errors    int
	hides     int
}

func (r *recordingIndicator) ShowConnected(_ context.Context, id device.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = append(r.connected, id.Name)
}

func (r *recordingIndicator) ShowNotFound(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound++
}

func (r *recordingIndicator) ShowMuted(_ context.Context, muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = append(r.muted, muted)
}

func (r *recordingIndicator) ShowToolbar(context.Context, device.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolbars++
}

func (r *recordingIndicator) ShowSharing(_ context.Context, sharing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sharing = append(r.sharing, sharing)
}

func (r *recordingIndicator) ShowError(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
}

func (r *recordingIndicator) Hide(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hides++
}

type manualTimer struct{ stopped bool }

func (m *manualTimer) Stop() bool { m.stopped = true; return true }

type harness struct {
	ctrl      *Controller
	state     *device.State
	sender    *fakeSender
	muter     *fakeMuter
	connector *fakeConnector
	indicator *recordingIndicator
	fires     []func()
}

func newHarness(identity device.Identity) *harness {
	h := &harness{
		state:     device.NewState(identity),
		sender:    &fakeSender{},
		connector: &fakeConnector{},
		indicator: &recordingIndicator{},
	}
	h.muter = &fakeMuter{state: h.state}
	h.ctrl = NewController(Deps{
		State:     h.state,
		Commands:  h.sender,
		Mute:      h.muter,
		Connector: h.connector,
		Indicator: h.indicator,
	})
	h.ctrl.clicks.SetAfterFunc(func(_ time.Duration, f func()) click.Timer {
		h.fires = append(h.fires, f)
		return &manualTimer{}
	})
	return h
}

var bar = device.Identity{Address: "10.0.0.5", PlayerID: "1", Name: "Bar"}

func TestHandleStatusAndUnknownCommand(t *testing.T) {
	h := newHarness(bar)

	status := h.ctrl.Handle(context.Background(), ipc.Request{Command: "status"})
	require.True(t, status.OK)
	require.Equal(t, "bound", status.State)
	require.Equal(t, bar, status.Device.Identity)

	unknown := h.ctrl.Handle(context.Background(), ipc.Request{Command: "definitely-unknown"})
	require.False(t, unknown.OK)
	require.Contains(t, unknown.Error, "unknown command")
}

func TestHandleToolbarActions(t *testing.T) {
	h := newHarness(bar)
	ctx := context.Background()

	for _, req := range []ipc.Request{
		{Command: "play"},
		{Command: "pause"},
		{Command: "volume-up"},
		{Command: "volume-down"},
		{Command: "input"},
		{Command: "input", Arg: "hdmi_arc_1"},
	} {
		resp := h.ctrl.Handle(ctx, req)
		require.True(t, resp.OK, resp.Error)
	}

	require.Equal(t, []sentCommand{
		{Name: "set_play_state", Params: "state=play"},
		{Name: "set_play_state", Params: "state=pause"},
		{Name: "volume_up"},
		{Name: "volume_down"},
		{Name: "play_input", Params: "input=optical_in_1"},
		{Name: "play_input", Params: "input=hdmi_arc_1"},
	}, h.sender.sent)
}

func TestHandleInputRejectsMalformedName(t *testing.T) {
	h := newHarness(bar)

	for _, arg := range []string{
		"aux\r\nheos://player/set_mute?pid=1&state=on",
		"aux&level=100",
		"aux?pid=2",
		"optical in",
	} {
		t.Run(arg, func(t *testing.T) {
			resp := h.ctrl.Handle(context.Background(), ipc.Request{Command: "input", Arg: arg})
			require.False(t, resp.OK)
			require.Contains(t, resp.Error, "invalid input name")
		})
	}
	require.Empty(t, h.sender.sent)
}

func TestHandleUnboundReportsConnectHint(t *testing.T) {
	h := newHarness(device.Unbound())
	h.sender.unbound = true

	resp := h.ctrl.Handle(context.Background(), ipc.Request{Command: "play"})
	require.False(t, resp.OK)
	require.Equal(t, "unbound", resp.State)
	require.Contains(t, resp.Error, "heosctl connect")
}

func TestHandleMuteCommands(t *testing.T) {
	h := newHarness(bar)
	bus := h.ctrl.Bus().Subscribe()

	require.True(t, h.ctrl.Handle(context.Background(), ipc.Request{Command: "mute"}).OK)
	require.True(t, h.ctrl.Handle(context.Background(), ipc.Request{Command: "unmute"}).OK)
	require.True(t, h.ctrl.Handle(context.Background(), ipc.Request{Command: "toggle-mute"}).OK)

	require.Equal(t, []bool{true, false}, h.muter.sets)
	require.Equal(t, 1, h.muter.Toggles())
	require.Equal(t, []bool{true, false}, h.indicator.muted)

	evt := <-bus
	require.Equal(t, events.KindMute, evt.Kind)
	require.Equal(t, "true", evt.Detail)
	require.True(t, evt.State.Muted)
}

func TestClickDoubleTogglesMute(t *testing.T) {
	h := newHarness(bar)

	resp := h.ctrl.Handle(context.Background(), ipc.Request{Command: "click", Arg: "down"})
	require.True(t, resp.OK)
	require.Equal(t, "awaiting_second_click", resp.Message)

	resp = h.ctrl.Handle(context.Background(), ipc.Request{Command: "click", Arg: "double"})
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.Message)

	require.Equal(t, 1, h.muter.Toggles())
	require.Zero(t, h.indicator.toolbars)
}

func TestClickDoubleWhileUnboundShowsError(t *testing.T) {
	h := newHarness(device.Unbound())
	h.muter.toggleErr = command.ErrUnbound

	h.ctrl.Handle(context.Background(), ipc.Request{Command: "click", Arg: "down"})
	h.ctrl.Handle(context.Background(), ipc.Request{Command: "click", Arg: "double"})

	require.Equal(t, 1, h.muter.Toggles())
	require.Equal(t, 1, h.indicator.errors)
}

func TestClickTimeoutOpensToolbar(t *testing.T) {
	h := newHarness(bar)
	bus := h.ctrl.Bus().Subscribe()

	h.ctrl.Handle(context.Background(), ipc.Request{Command: "click", Arg: "down"})
	require.Len(t, h.fires, 1)
	h.fires[0]()

	require.Equal(t, 1, h.indicator.toolbars)
	require.Zero(t, h.muter.Toggles())
	evt := <-bus
	require.Equal(t, events.KindIntent, evt.Kind)
	require.Equal(t, "open-toolbar", evt.Detail)
}

func TestClickRejectsUnknownArg(t *testing.T) {
	h := newHarness(bar)
	resp := h.ctrl.Handle(context.Background(), ipc.Request{Command: "click", Arg: "triple"})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "down or double")
}

func TestConnectReportsResult(t *testing.T) {
	h := newHarness(device.Unbound())

	resp := h.ctrl.Handle(context.Background(), ipc.Request{Command: "connect"})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "no device found")

	h.connector.result = connection.Result{Found: true, Identity: bar}
	resp = h.ctrl.Handle(context.Background(), ipc.Request{Command: "connect"})
	require.True(t, resp.OK)
	require.Equal(t, "connected to Bar", resp.Message)
}

func TestIdentityChangeAnnouncesConnection(t *testing.T) {
	h := newHarness(device.Unbound())
	bus := h.ctrl.Bus().Subscribe()

	h.state.SetIdentity(bar)
	h.state.SetIdentity(device.Unbound())

	require.Equal(t, []string{"Bar"}, h.indicator.connected)
	require.Equal(t, events.KindIdentity, (<-bus).Kind)
	require.Equal(t, events.KindIdentity, (<-bus).Kind)
}

func TestObserveValidationAndSharing(t *testing.T) {
	h := newHarness(device.Unbound())
	bus := h.ctrl.Bus().Subscribe()

	h.ctrl.ObserveValidation(connection.Result{})
	h.ctrl.ObserveSharing(true)

	require.Equal(t, 1, h.indicator.notFound)
	require.Equal(t, []bool{true}, h.indicator.sharing)
	require.Equal(t, events.KindValidation, (<-bus).Kind)
	require.Equal(t, events.KindScreenShare, (<-bus).Kind)
}

type blockingMonitor struct {
	started chan struct{}
}

func (m *blockingMonitor) Run(ctx context.Context) {
	close(m.started)
	<-ctx.Done()
}

func TestRunValidatesAndDrainsOnShutdown(t *testing.T) {
	h := newHarness(device.Unbound())
	monitor := &blockingMonitor{started: make(chan struct{})}
	h.ctrl.monitor = monitor

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()

	<-monitor.started
	cancel()
	require.NoError(t, <-done)

	require.Equal(t, 1, h.connector.validates)
	require.Equal(t, 1, h.connector.waits)
	require.Equal(t, 1, h.sender.waits)
	require.Equal(t, 1, h.indicator.hides)
}
