// Package click turns primary-button events into toggle-mute and open-toolbar intents.
package click

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/heosctl/internal/fsm"
)

// DefaultWindow is how long a single click waits for a second one.
const DefaultWindow = 100 * time.Millisecond

// Timer is a cancellable one-shot timer.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Disambiguator drives the click state machine and owns its timer.
type Disambiguator struct {
	mu         sync.Mutex
	state      fsm.State
	window     time.Duration
	afterFunc  AfterFunc
	timer      Timer
	generation uint64
	emit       func(fsm.Intent)
	logger     *slog.Logger
}

// New returns an idle disambiguator that reports intents to emit.
func New(window time.Duration, emit func(fsm.Intent), logger *slog.Logger) *Disambiguator {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Disambiguator{
		state:     fsm.StateIdle,
		window:    window,
		afterFunc: realAfterFunc,
		emit:      emit,
		logger:    logger,
	}
}

// SetAfterFunc replaces the timer source.
func (d *Disambiguator) SetAfterFunc(fn AfterFunc) {
	d.mu.Lock()
	d.afterFunc = fn
	d.mu.Unlock()
}

// State returns the current click state.
func (d *Disambiguator) State() fsm.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// PrimaryDown records a primary button press.
func (d *Disambiguator) PrimaryDown() {
	d.handle(fsm.EventPrimaryDown, 0)
}

// DoubleClick records a platform-detected double click.
func (d *Disambiguator) DoubleClick() {
	d.handle(fsm.EventDoubleClick, 0)
}

// Handle feeds a named external event. Timer events are internal and ignored here.
func (d *Disambiguator) Handle(event fsm.Event) {
	if event == fsm.EventTimerFired {
		return
	}
	d.handle(event, 0)
}

func (d *Disambiguator) handle(event fsm.Event, generation uint64) {
	d.mu.Lock()
	if event == fsm.EventTimerFired && generation != d.generation {
		d.mu.Unlock()
		return
	}

	current := d.state
	next, intent, err := fsm.Transition(current, event)
	if err != nil {
		d.mu.Unlock()
		d.logger.Debug("click event ignored", "state", string(current), "event", string(event), "error", err.Error())
		return
	}

	switch {
	case current == fsm.StateIdle && next == fsm.StateAwaitingSecondClick:
		d.generation++
		armed := d.generation
		d.timer = d.afterFunc(d.window, func() { d.handle(fsm.EventTimerFired, armed) })
	case current == fsm.StateAwaitingSecondClick && next == fsm.StateIdle:
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		d.generation++
	}
	d.state = next
	emit := d.emit
	d.mu.Unlock()

	if intent != fsm.IntentNone && emit != nil {
		emit(intent)
	}
}
