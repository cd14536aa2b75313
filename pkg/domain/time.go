package domain

import "fmt"

// TimeUpdateKind distinguishes relative from absolute time updates.
type TimeUpdateKind uint8

const (
	TimeDelta TimeUpdateKind = iota
	TimeAbsolute
)

// TimeUpdate tells a pose producer how to move its playhead.
type TimeUpdate struct {
	Kind  TimeUpdateKind
	Value float64
}

// Delta advances time by dt.
func Delta(dt float64) TimeUpdate {
	return TimeUpdate{Kind: TimeDelta, Value: dt}
}

// Absolute moves time to t regardless of the current value.
func Absolute(t float64) TimeUpdate {
	return TimeUpdate{Kind: TimeAbsolute, Value: t}
}

// Apply returns the time reached from current after the update.
func (u TimeUpdate) Apply(current float64) float64 {
	if u.Kind == TimeAbsolute {
		return u.Value
	}
	return current + u.Value
}

// Scale multiplies a delta by factor. Absolute updates are kept as is.
func (u TimeUpdate) Scale(factor float64) TimeUpdate {
	if u.Kind == TimeAbsolute {
		return u
	}
	return Delta(u.Value * factor)
}

func (u TimeUpdate) String() string {
	if u.Kind == TimeAbsolute {
		return fmt.Sprintf("absolute(%g)", u.Value)
	}
	return fmt.Sprintf("delta(%g)", u.Value)
}
