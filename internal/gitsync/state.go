package gitsync

import "fmt"

// OpPhase is the coarse stage of the current repository operation.
type OpPhase int

const (
	OpIdle OpPhase = iota
	OpCloning
	OpCommitting
	OpPushing
	OpSuccess
	OpError
)

func (p OpPhase) String() string {
	switch p {
	case OpIdle:
		return "Idle"
	case OpCloning:
		return "Cloning"
	case OpCommitting:
		return "Committing"
	case OpPushing:
		return "Pushing"
	case OpSuccess:
		return "Success"
	case OpError:
		return "Error"
	default:
		return fmt.Sprintf("OpPhase(%d)", int(p))
	}
}

// OperationState is the observable state of the sync engine. Progress is in
// [0,1], non-decreasing within an attempt; it reaches exactly 1.0 on Success
// and is left at its last value on Error so the UI can show where the
// operation stopped.
type OperationState struct {
	Phase    OpPhase
	Progress float64
	Message  string
}
