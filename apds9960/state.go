package apds9960

// State is the lifecycle stage of a sensor session.
type State int

const (
	StateInitializing State = iota
	StateReady
	StatePolling
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StatePolling:
		return "polling"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Stage names the setup step that failed.
type Stage string

const (
	StageOpen      Stage = "open"
	StageIdentity  Stage = "identity"
	StageConfigure Stage = "configure"
)

// SetupError is returned by Open when the session could not be brought up.
// The device handle has already been released when it is returned.
type SetupError struct {
	Stage Stage
	Err   error
}

func (e *SetupError) Error() string {
	return "apds9960: " + string(e.Stage) + " failed: " + e.Err.Error()
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
