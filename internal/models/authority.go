package models

// AuthorityMode enumerates who owns session state during the cache
// migration window.
type AuthorityMode string

const (
	// AuthorityLocal means the in-process session cache is the source of
	// truth and runs its own change-feed subscription.
	AuthorityLocal AuthorityMode = "local"
	// AuthorityRemote means the server-authoritative cache owns state; local
	// mutations become UI-only bookkeeping and the remote subsystem is
	// presumed to run its own subscription.
	AuthorityRemote AuthorityMode = "remote"
)

// IsValid reports whether the mode is one of the two migration states.
func (m AuthorityMode) IsValid() bool {
	return m == AuthorityLocal || m == AuthorityRemote
}

// AuthorityResolver reports the current authority mode. It is invoked fresh
// on every branching operation so a runtime toggle is observed by the next
// call; implementations must be cheap and side-effect free.
type AuthorityResolver func() AuthorityMode

// AuthorityHeaders captures the header metadata applied for rollout
// observability.
type AuthorityHeaders struct {
	ModeHeader string        `json:"mode_header"`
	Mode       AuthorityMode `json:"mode"`
}
