package mapresolve

// State is the pipeline's position in its one-way state machine.
type State int32

const (
	// StateIdle means Start has not been called.
	StateIdle State = iota
	// StateChecking means the cache is being checked for completeness.
	StateChecking
	// StateFetching means the manifest is being resolved and artifacts refreshed.
	StateFetching
	// StateComposing means the cached tables are being parsed and joined.
	StateComposing
	// StateSucceeded means a table was published.
	StateSucceeded
	// StateFailed means a failure was published.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateFetching:
		return "fetching"
	case StateComposing:
		return "composing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
