package auth

// Phase identifies where an authentication attempt currently is. Transitions
// are strictly forward (Idle → Starting → WaitingForUser → Processing →
// Success); any phase may jump to PhaseError, and Reset returns to PhaseIdle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseWaitingForUser
	PhaseProcessing
	PhaseSuccess
	PhaseError
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseStarting:
		return "Starting"
	case PhaseWaitingForUser:
		return "WaitingForUser"
	case PhaseProcessing:
		return "Processing"
	case PhaseSuccess:
		return "Success"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// State is the externally observable authentication state. Identity is set
// only in PhaseSuccess; Err only in PhaseError.
type State struct {
	Phase    Phase
	Identity *Identity
	Err      string
}

// Identity is the verified account the provider reported for the new token.
type Identity struct {
	Login string
	Email string
	Name  string
}
