package association

import "fmt"

// State is where one association window stands.
type State string

const (
	StateUnassociated     State = "unassociated"
	StateRuleSelected     State = "rule_selected"
	StateNeedsManualInput State = "needs_manual_input"
	StateManualSubmitted  State = "manual_submitted"
	StateAssigned         State = "assigned"
)

// Event moves a window from one State to the next.
type Event string

const (
	EventSelectRule    Event = "select_rule"
	EventRequestManual Event = "request_manual"
	EventSubmitManual  Event = "submit_manual"
	EventPersist       Event = "persist"
	EventFail          Event = "fail"
)

// Assigned windows may be submitted again; the rerun overwrites the previous result.
var transitions = map[State]map[Event]State{
	StateUnassociated: {
		EventSelectRule:    StateRuleSelected,
		EventRequestManual: StateNeedsManualInput,
	},
	StateRuleSelected: {
		EventPersist: StateAssigned,
		EventFail:    StateUnassociated,
	},
	StateNeedsManualInput: {
		EventSubmitManual: StateManualSubmitted,
		EventFail:         StateUnassociated,
	},
	StateManualSubmitted: {
		EventPersist: StateAssigned,
		EventFail:    StateUnassociated,
	},
	StateAssigned: {
		EventSelectRule:    StateRuleSelected,
		EventRequestManual: StateNeedsManualInput,
	},
}

// Next returns the state reached from s on e.
func Next(s State, e Event) (State, error) {
	next, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("association: event %q is not allowed in state %q", e, s)
	}
	return next, nil
}

// Walk applies events in order starting from StateUnassociated.
func Walk(events ...Event) (State, error) {
	s := StateUnassociated
	for _, e := range events {
		var err error
		if s, err = Next(s, e); err != nil {
			return s, err
		}
	}
	return s, nil
}
