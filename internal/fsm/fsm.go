// Package fsm is the click disambiguation transition table.
package fsm

import "fmt"

type State string

type Event string

// Intent is the user action a transition resolves to.
type Intent string

const (
	StateIdle                State = "idle"
	StateAwaitingSecondClick State = "awaiting_second_click"
)

const (
	EventPrimaryDown Event = "primary_down"
	EventDoubleClick Event = "double_click"
	EventTimerFired  Event = "timer_fired"
)

const (
	IntentNone        Intent = ""
	IntentToggleMute  Intent = "toggle-mute"
	IntentOpenToolbar Intent = "open-toolbar"
)

// Transition returns the next state and the intent emitted on the way.
//
// Entering StateAwaitingSecondClick arms the click timer; leaving it cancels
// the timer. The caller owns the timer.
func Transition(current State, event Event) (State, Intent, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventPrimaryDown:
			return StateAwaitingSecondClick, IntentNone, nil
		case EventDoubleClick:
			return StateIdle, IntentToggleMute, nil
		default:
			return current, IntentNone, invalidTransition(current, event)
		}
	case StateAwaitingSecondClick:
		switch event {
		case EventDoubleClick:
			return StateIdle, IntentToggleMute, nil
		case EventTimerFired:
			return StateIdle, IntentOpenToolbar, nil
		case EventPrimaryDown:
			// second button-down of a double click; the platform double-click event follows
			return current, IntentNone, nil
		default:
			return current, IntentNone, invalidTransition(current, event)
		}
	default:
		return current, IntentNone, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
