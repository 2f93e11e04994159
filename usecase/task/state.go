package task

import "fmt"

// LoadState tracks the lifecycle of the in-memory list for one session.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load_failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// canTransition reports whether the list may move from one state to
// another. Any state may fall back to Unloaded when the session ends.
func canTransition(from, to LoadState) bool {
	if to == Unloaded {
		return true
	}
	switch from {
	case Unloaded, Loaded, LoadFailed:
		return to == Loading
	case Loading:
		return to == Loading || to == Loaded || to == LoadFailed
	default:
		return false
	}
}
