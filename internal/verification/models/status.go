package models

// Status is the verification state of a website's domain.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
)

// CanTransitionTo reports whether the state machine allows a move.
//
//	pending --(verified attempt)--> verified   terminal
//	pending --(failed attempt)----> failed
//	failed  --(verified attempt)--> verified   terminal
//	failed  --(failed attempt)----> failed
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusVerified || next == StatusFailed
	case StatusFailed:
		return next == StatusVerified || next == StatusFailed
	case StatusVerified:
		return false
	default:
		return false
	}
}

// IsTerminal reports whether no further attempts can change the status.
func (s Status) IsTerminal() bool {
	return s == StatusVerified
}
