package render

import "fmt"

// State is the stage an Engine is in.
type State int

const (
	Idle State = iota
	Classifying
	Validating
	AutoRepairing
	Drawing
	Animating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Classifying:
		return "classifying"
	case Validating:
		return "validating"
	case AutoRepairing:
		return "auto-repairing"
	case Drawing:
		return "drawing"
	case Animating:
		return "animating"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
