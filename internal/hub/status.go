package hub

// Status tracks where a flagged alert is in its lifecycle.
type Status string

const (
	// StatusNew means flagged, not yet picked up by an operator.
	StatusNew Status = "new"

	// StatusInProgress means an operator is working the alert.
	StatusInProgress Status = "in_progress"

	// StatusHandled means resolved. Terminal.
	StatusHandled Status = "handled"

	// StatusDismissed means closed without action. Terminal.
	StatusDismissed Status = "dismissed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusHandled, StatusDismissed:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusHandled || s == StatusDismissed
}

// transitions maps each status to the set of statuses reachable from it.
var transitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusDismissed},
	StatusInProgress: {StatusHandled, StatusDismissed},
	StatusHandled:    {},
	StatusDismissed:  {},
}

// Transition validates a status change and returns the new status. It is a
// pure function: the caller persists and audits the result. An illegal move,
// including any move out of a terminal status, returns *InvalidTransitionError.
func Transition(current, target Status) (Status, error) {
	for _, next := range transitions[current] {
		if next == target {
			return target, nil
		}
	}
	return current, &InvalidTransitionError{From: current, To: target}
}

// ToggleFollow flips the follow flag and returns the new value together with
// the follower count delta to apply (+1 on follow, -1 on unfollow). The toggle
// is orthogonal to status and legal in any state, terminal ones included.
func ToggleFollow(current bool) (next bool, delta int) {
	if current {
		return false, -1
	}
	return true, 1
}
