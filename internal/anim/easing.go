// Package anim is the cooperative animation scheduler: named animations
// driven by a host frame source, with easing curves applied to progress.
package anim

import (
	"fmt"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing int

const (
	Linear Easing = iota
	EaseIn
	EaseOut
	EaseInOut
)

// String returns the CSS-style easing name.
func (e Easing) String() string {
	switch e {
	case Linear:
		return "linear"
	case EaseIn:
		return "ease-in"
	case EaseOut:
		return "ease-out"
	case EaseInOut:
		return "ease-in-out"
	}
	return fmt.Sprintf("easing(%d)", int(e))
}

// ParseEasing resolves an easing name. Unknown names fall back to Linear
// with ok=false.
func ParseEasing(name string) (Easing, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "":
		return Linear, true
	case "ease-in", "easein":
		return EaseIn, true
	case "ease-out", "easeout":
		return EaseOut, true
	case "ease-in-out", "easeinout":
		return EaseInOut, true
	}
	return Linear, false
}

// MarshalText implements encoding.TextMarshaler.
func (e Easing) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Easing) UnmarshalText(b []byte) error {
	v, ok := ParseEasing(string(b))
	if !ok {
		return fmt.Errorf("unknown easing %q", string(b))
	}
	*e = v
	return nil
}

// Apply evaluates the curve at t. t is clamped to [0,1].
func (e Easing) Apply(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return t * (2 - t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	}
	return t
}
