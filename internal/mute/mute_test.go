package mute

import (
	"testing"

	"github.com/rbright/heosctl/internal/command"
	"github.com/rbright/heosctl/internal/device"
	"github.com/stretchr/testify/require"
)

type sent struct {
	Name   string
	Params string
}

var bar = device.Identity{Address: "10.0.0.5", PlayerID: "1", Name: "Bar"}

// syncSender answers get_mute from deviceMuted and runs continuations inline.
type syncSender struct {
	deviceMuted bool
	unbound     bool
	sent        []sent
	// cachedAtSend records the cache value seen when each set_mute goes out.
	state        *device.State
	cachedAtSend []bool
}

func (s *syncSender) Send(name string, params string, onResponse func(string)) error {
	if s.unbound {
		return command.ErrUnbound
	}
	s.sent = append(s.sent, sent{Name: name, Params: params})
	if name == "set_mute" && s.state != nil {
		s.cachedAtSend = append(s.cachedAtSend, s.state.Muted())
	}

	reply := ""
	switch name {
	case "get_mute":
		reply = "pid=1&state=off"
		if s.deviceMuted {
			reply = "pid=1&state=on"
		}
	case "set_mute":
		s.deviceMuted = params == "state=on"
		reply = "pid=1&" + params
	}
	if onResponse != nil {
		onResponse(reply)
	}
	return nil
}

func TestRefreshCachesDeviceTruth(t *testing.T) {
	state := device.NewState(device.Unbound())
	sender := &syncSender{deviceMuted: true}
	syncer := NewSynchronizer(sender, state, nil)

	done := false
	require.NoError(t, syncer.Refresh(func() { done = true }))
	require.True(t, done)
	require.True(t, syncer.Muted())
}

func TestSetUpdatesCacheBeforeSending(t *testing.T) {
	state := device.NewState(bar)
	sender := &syncSender{state: state}
	syncer := NewSynchronizer(sender, state, nil)

	require.NoError(t, syncer.Set(true))
	require.Equal(t, []bool{true}, sender.cachedAtSend)
	require.True(t, state.Muted())
}

func TestSetUnboundLeavesCacheUntouched(t *testing.T) {
	tests := []struct {
		name     string
		identity device.Identity
		cached   bool
		desired  bool
	}{
		{name: "mute while unmuted", identity: device.Unbound(), cached: false, desired: true},
		{name: "unmute while muted", identity: device.Unbound(), cached: true, desired: false},
		{name: "short address", identity: device.Identity{Address: "1.2.3", PlayerID: "1"}, cached: false, desired: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := device.NewState(tc.identity)
			state.SetMuted(tc.cached)
			sender := &syncSender{}
			syncer := NewSynchronizer(sender, state, nil)

			require.ErrorIs(t, syncer.Set(tc.desired), command.ErrUnbound)
			require.Equal(t, tc.cached, state.Muted())
			require.Empty(t, sender.sent)
		})
	}
}

func TestSetSendsMuteState(t *testing.T) {
	sender := &syncSender{}
	syncer := NewSynchronizer(sender, device.NewState(bar), nil)

	require.NoError(t, syncer.Set(true))
	require.NoError(t, syncer.Set(false))
	require.Equal(t, []sent{
		{Name: "set_mute", Params: "state=on"},
		{Name: "set_mute", Params: "state=off"},
	}, sender.sent)
}

func TestToggleRefreshesBeforeFlipping(t *testing.T) {
	state := device.NewState(bar)
	state.SetMuted(true)
	sender := &syncSender{deviceMuted: false}
	syncer := NewSynchronizer(sender, state, nil)

	require.NoError(t, syncer.Toggle())
	require.True(t, state.Muted())
	require.True(t, sender.deviceMuted)
	require.Equal(t, []sent{
		{Name: "get_mute"},
		{Name: "set_mute", Params: "state=on"},
	}, sender.sent)
}

func TestToggleUnboundReturnsErrUnbound(t *testing.T) {
	syncer := NewSynchronizer(&syncSender{unbound: true}, device.NewState(device.Unbound()), nil)
	require.ErrorIs(t, syncer.Toggle(), command.ErrUnbound)
}
