package domain

import "time"

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	TicketStateOpen       TicketState = "open"
	TicketStateInProgress TicketState = "in_progress"
	TicketStateResolved   TicketState = "resolved"
	TicketStateClosed     TicketState = "closed"
)

// ParseTicketState maps a wire value onto the closed state set.
func ParseTicketState(s string) (TicketState, bool) {
	switch TicketState(s) {
	case TicketStateOpen, TicketStateInProgress, TicketStateResolved, TicketStateClosed:
		return TicketState(s), true
	}
	return "", false
}

// ticketTransitions is the full transition table. A pair absent from the table
// is rejected; closed has no outgoing entries and is therefore terminal.
// Resolved may move back to in_progress when a ticket is reopened.
var ticketTransitions = map[TicketState][]TicketState{
	TicketStateOpen:       {TicketStateInProgress},
	TicketStateInProgress: {TicketStateResolved},
	TicketStateResolved:   {TicketStateClosed, TicketStateInProgress},
	TicketStateClosed:     {},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to TicketState) bool {
	for _, next := range ticketTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TicketStates lists every state, for exhaustive sweeps.
func TicketStates() []TicketState {
	return []TicketState{
		TicketStateOpen,
		TicketStateInProgress,
		TicketStateResolved,
		TicketStateClosed,
	}
}

// Ticket is the aggregate for support requests. Content is owned by the
// creating customer; state belongs to staff.
type Ticket struct {
	ID          int64
	OwnerID     int64
	Description string
	State       TicketState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
