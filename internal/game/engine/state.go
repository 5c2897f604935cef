package engine

import "fmt"

// State is a phase of the game state machine. States are ordered; the back
// edges are END_TURN to START_TURN and END_ROUND to LOAD_DICE_INTO_BUTTONS.
type State int

const (
	StateStartGame State = iota + 1
	StateApplyHandicaps
	StateChooseAuxiliaryDice
	StateLoadDiceIntoButtons
	StateAddAvailableDiceToGame
	StateSpecifyDice
	StateDetermineInitiative
	StateReactToInitiative
	StateStartRound
	StateStartTurn
	StateEndTurn
	StateEndRound
	StateEndGame
)

var stateNames = map[State]string{
	StateStartGame:              "START_GAME",
	StateApplyHandicaps:         "APPLY_HANDICAPS",
	StateChooseAuxiliaryDice:    "CHOOSE_AUXILIARY_DICE",
	StateLoadDiceIntoButtons:    "LOAD_DICE_INTO_BUTTONS",
	StateAddAvailableDiceToGame: "ADD_AVAILABLE_DICE_TO_GAME",
	StateSpecifyDice:            "SPECIFY_DICE",
	StateDetermineInitiative:    "DETERMINE_INITIATIVE",
	StateReactToInitiative:      "REACT_TO_INITIATIVE",
	StateStartRound:             "START_ROUND",
	StateStartTurn:              "START_TURN",
	StateEndTurn:                "END_TURN",
	StateEndRound:               "END_ROUND",
	StateEndGame:                "END_GAME",
}

// String returns the upper-case state name, e.g. "START_TURN".
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState converts a state name back to a State.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("engine: unknown state %q", name)
}

// facts is the read-only summary of the game that transition consumes.
type facts struct {
	buttonsAssigned  bool
	maxWinsReached   bool
	auxiliaryPending bool
	buttonsLoaded    bool
	reservePending   bool
	diceInPlay       bool
	diceReady        bool
	initiativeSet    bool
	anyWaiting       bool
	activePlayerSet  bool
	attackCommitted  bool
	roundOver        bool
}

// transition returns the state that follows s given f. It has no side
// effects; returning s means the game stays put.
func transition(s State, f facts) State {
	switch s {
	case StateStartGame:
		if f.buttonsAssigned {
			return StateApplyHandicaps
		}
	case StateApplyHandicaps:
		if f.maxWinsReached {
			return StateEndGame
		}
		return StateChooseAuxiliaryDice
	case StateChooseAuxiliaryDice:
		if !f.auxiliaryPending {
			return StateLoadDiceIntoButtons
		}
	case StateLoadDiceIntoButtons:
		if f.buttonsLoaded && !f.reservePending {
			return StateAddAvailableDiceToGame
		}
	case StateAddAvailableDiceToGame:
		if f.diceInPlay {
			return StateSpecifyDice
		}
	case StateSpecifyDice:
		if f.diceReady {
			return StateDetermineInitiative
		}
	case StateDetermineInitiative:
		if f.initiativeSet {
			return StateReactToInitiative
		}
	case StateReactToInitiative:
		if !f.anyWaiting {
			return StateStartRound
		}
	case StateStartRound:
		if f.activePlayerSet {
			return StateStartTurn
		}
	case StateStartTurn:
		if f.attackCommitted && !f.anyWaiting {
			return StateEndTurn
		}
	case StateEndTurn:
		if f.roundOver {
			return StateEndRound
		}
		return StateStartTurn
	case StateEndRound:
		if f.diceInPlay {
			return StateEndRound
		}
		if f.maxWinsReached {
			return StateEndGame
		}
		return StateLoadDiceIntoButtons
	}
	return s
}
