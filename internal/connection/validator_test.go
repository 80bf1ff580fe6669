package connection

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rbright/heosctl/internal/command"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/heos"
	"github.com/stretchr/testify/require"
)

type staticDiscoverer string

func (d staticDiscoverer) Discover(context.Context) string { return string(d) }

type staticDirectory struct {
	mu      sync.Mutex
	players []heos.Player
	asked   []string
}

func (d *staticDirectory) FetchPlayers(_ context.Context, address string) []heos.Player {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asked = append(d.asked, address)
	return d.players
}

type memoryPersister struct {
	mu    sync.Mutex
	saved []device.Identity
	err   error
}

func (p *memoryPersister) Save(identity device.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, identity)
	return p.err
}

type countingRefresher struct {
	calls int
	err   error
}

func (r *countingRefresher) Refresh(func()) error {
	r.calls++
	return r.err
}

func TestRunNoDeviceLeavesIdentityUntouched(t *testing.T) {
	existing := device.Identity{Address: "10.0.0.5", PlayerID: "1", Name: "Bar"}
	state := device.NewState(existing)
	directory := &staticDirectory{}
	persister := &memoryPersister{}
	refresher := &countingRefresher{}

	v := &Validator{Discoverer: staticDiscoverer(""), Directory: directory, Persister: persister, Refresher: refresher, State: state}
	result := v.Run(context.Background())

	require.False(t, result.Found)
	require.Equal(t, existing, state.Identity())
	require.Empty(t, directory.asked)
	require.Empty(t, persister.saved)
	require.Zero(t, refresher.calls)
}

func TestRunBindsFirstPlayerPersistsAndRefreshes(t *testing.T) {
	state := device.NewState(device.Unbound())
	directory := &staticDirectory{players: []heos.Player{
		{Name: "Bar", Address: "10.0.0.5", PlayerID: "1"},
		{Name: "Kitchen", Address: "10.0.0.6", PlayerID: "2"},
	}}
	persister := &memoryPersister{}
	refresher := &countingRefresher{}

	var observed []Result
	v := &Validator{
		Discoverer: staticDiscoverer("10.0.0.5"),
		Directory:  directory,
		Persister:  persister,
		Refresher:  refresher,
		State:      state,
		OnResult:   func(r Result) { observed = append(observed, r) },
	}
	result := v.Run(context.Background())

	want := device.Identity{Address: "10.0.0.5", PlayerID: "1", Name: "Bar"}
	require.True(t, result.Found)
	require.Equal(t, 2, result.Players)
	require.Equal(t, want, state.Identity())
	require.Equal(t, []string{"10.0.0.5"}, directory.asked)
	require.Equal(t, []device.Identity{want}, persister.saved)
	require.Equal(t, 1, refresher.calls)
	require.Equal(t, []Result{result}, observed)
}

func TestRunWithoutPlayersPersistsUnbound(t *testing.T) {
	state := device.NewState(device.Identity{Address: "10.0.0.9", PlayerID: "9", Name: "Old"})
	persister := &memoryPersister{}
	refresher := &countingRefresher{err: command.ErrUnbound}

	v := &Validator{Discoverer: staticDiscoverer("10.0.0.5"), Directory: &staticDirectory{}, Persister: persister, Refresher: refresher, State: state}
	result := v.Run(context.Background())

	require.True(t, result.Found)
	require.Equal(t, device.Unbound(), state.Identity())
	require.Equal(t, []device.Identity{device.Unbound()}, persister.saved)
	require.Equal(t, 1, refresher.calls)
}

func TestRunPersistFailureIsNotFatal(t *testing.T) {
	state := device.NewState(device.Unbound())
	persister := &memoryPersister{err: errors.New("read-only filesystem")}
	refresher := &countingRefresher{}

	v := &Validator{
		Discoverer: staticDiscoverer("10.0.0.5"),
		Directory:  &staticDirectory{players: []heos.Player{{Name: "Bar", Address: "10.0.0.5", PlayerID: "1"}}},
		Persister:  persister,
		Refresher:  refresher,
		State:      state,
	}
	v.Run(context.Background())
	require.Equal(t, "Bar", state.Identity().Name)
	require.Equal(t, 1, refresher.calls)
}

func TestValidateRunsInBackground(t *testing.T) {
	state := device.NewState(device.Unbound())
	persister := &memoryPersister{}
	v := &Validator{
		Discoverer: staticDiscoverer("10.0.0.5"),
		Directory:  &staticDirectory{players: []heos.Player{{Name: "Bar", Address: "10.0.0.5", PlayerID: "1"}}},
		Persister:  persister,
		State:      state,
	}
	v.Bind(context.Background())
	v.Validate()
	v.Validate()
	v.Wait()

	require.Len(t, persister.saved, 2)
	require.Equal(t, "10.0.0.5", state.Identity().Address)
}
