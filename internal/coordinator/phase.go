package coordinator

// Phase is the current step of a resynchronization cycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhasePausing
	PhaseSeeking
	PhaseResuming
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePausing:
		return "pausing"
	case PhaseSeeking:
		return "seeking"
	case PhaseResuming:
		return "resuming"
	default:
		return "unknown"
	}
}
