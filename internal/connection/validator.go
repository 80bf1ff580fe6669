// Package connection binds the controller to a discovered device.
package connection

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rbright/heosctl/internal/command"
	"github.com/rbright/heosctl/internal/device"
	"github.com/rbright/heosctl/internal/heos"
	"github.com/sourcegraph/conc"
)

// Discoverer finds a device address, or "" when none answered.
type Discoverer interface {
	Discover(ctx context.Context) string
}

// Directory lists the players behind a device address.
type Directory interface {
	FetchPlayers(ctx context.Context, address string) []heos.Player
}

// Persister stores the bound identity.
type Persister interface {
	Save(identity device.Identity) error
}

// Refresher re-reads the device mute state.
type Refresher interface {
	Refresh(onDone func()) error
}

// Result describes one validation run.
type Result struct {
	Found    bool            `json:"found"`
	Address  string          `json:"address,omitempty"`
	Players  int             `json:"players"`
	Identity device.Identity `json:"device"`
}

// Validator runs discovery, picks a player, persists it, and refreshes mute.
type Validator struct {
	Discoverer Discoverer
	Directory  Directory
	Persister  Persister
	Refresher  Refresher
	State      *device.State
	Logger     *slog.Logger
	// OnResult, if set, observes every completed run.
	OnResult func(Result)

	ctx context.Context
	wg  conc.WaitGroup
}

// Bind sets the context used by background runs started with Validate.
func (v *Validator) Bind(ctx context.Context) {
	v.ctx = ctx
}

// Validate starts a run in the background. Overlapping runs are allowed.
func (v *Validator) Validate() {
	ctx := v.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	v.wg.Go(func() { v.Run(ctx) })
}

// Wait blocks until background runs finish, logging any recovered panic.
func (v *Validator) Wait() {
	if recovered := v.wg.WaitAndRecover(); recovered != nil {
		v.logger().Error("validation goroutine panicked", "panic", recovered.String())
	}
}

// Run performs one validation synchronously.
func (v *Validator) Run(ctx context.Context) Result {
	log := v.logger()

	address := v.Discoverer.Discover(ctx)
	if address == "" {
		log.Info("no device found")
		result := Result{Identity: v.State.Identity()}
		v.report(result)
		return result
	}

	players := v.Directory.FetchPlayers(ctx, address)

	identity := device.Unbound()
	if len(players) > 0 {
		first := players[0]
		identity = device.Identity{Address: first.Address, PlayerID: first.PlayerID, Name: first.Name}
	}
	v.State.SetIdentity(identity)
	log.Info("device bound", "address", identity.Address, "pid", identity.PlayerID, "name", identity.Name, "players", len(players))

	if v.Persister != nil {
		if err := v.Persister.Save(identity); err != nil {
			log.Warn("persist device identity failed", "error", err.Error())
		}
	}

	if v.Refresher != nil {
		if err := v.Refresher.Refresh(nil); err != nil {
			if errors.Is(err, command.ErrUnbound) {
				log.Debug("mute refresh skipped; no player bound")
			} else {
				log.Warn("mute refresh failed", "error", err.Error())
			}
		}
	}

	result := Result{Found: true, Address: address, Players: len(players), Identity: identity}
	v.report(result)
	return result
}

func (v *Validator) report(result Result) {
	if v.OnResult != nil {
		v.OnResult(result)
	}
}

func (v *Validator) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return v.Logger
}
