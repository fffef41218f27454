package render

import "fmt"

// State is a render session's lifecycle position. Sessions only move forward.
type State int

// Session states in lifecycle order.
const (
	Idle State = iota
	Launched
	ContentLoaded
	Settled
	Closed
)

var stateNames = [...]string{"idle", "launched", "content-loaded", "settled", "closed"}

func (s State) String() string {
	if s < Idle || s > Closed {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// expect returns nil when cur is want, ErrSessionClosed when the session is
// closed and ErrInvalidState otherwise.
func expect(cur, want State) error {
	switch {
	case cur == want:
		return nil
	case cur == Closed:
		return ErrSessionClosed
	default:
		return fmt.Errorf("%w: %s, need %s", ErrInvalidState, cur, want)
	}
}
