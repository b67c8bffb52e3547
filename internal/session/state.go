package session

import "fmt"

// State is the lifecycle state of a Session
type State int

const (
	Locked State = iota
	Unlocking
	Unlocked
	Saving
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocking:
		return "unlocking"
	case Unlocked:
		return "unlocked"
	case Saving:
		return "saving"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
