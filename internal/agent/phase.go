package agent

import "fmt"

// Phase is where a session is in the turn cycle.
type Phase int32

const (
	PhaseInit Phase = iota
	PhaseScriptedRound
	PhaseAwaitingUser
	PhaseFinalizingUserTurn
	PhaseAgentRound
	PhaseConcluding
	PhaseClosed
)

var phaseNames = [...]string{
	PhaseInit:               "INIT",
	PhaseScriptedRound:      "SCRIPTED_ROUND",
	PhaseAwaitingUser:       "AWAITING_USER",
	PhaseFinalizingUserTurn: "FINALIZING_USER_TURN",
	PhaseAgentRound:         "AGENT_ROUND",
	PhaseConcluding:         "CONCLUDING",
	PhaseClosed:             "CLOSED",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
	return phaseNames[p]
}

// transitions lists the legal moves. Any phase may move to PhaseClosed.
var transitions = map[Phase][]Phase{
	PhaseInit:               {PhaseScriptedRound},
	PhaseScriptedRound:      {PhaseAwaitingUser},
	PhaseAwaitingUser:       {PhaseAwaitingUser, PhaseFinalizingUserTurn, PhaseConcluding},
	PhaseFinalizingUserTurn: {PhaseAwaitingUser, PhaseAgentRound},
	PhaseAgentRound:         {PhaseAwaitingUser},
	PhaseConcluding:         {},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Phase) bool {
	if from == PhaseClosed {
		return false
	}
	if to == PhaseClosed {
		return true
	}
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}
