package domain

import "fmt"

// Stage labels one phase of the selection state machine for diagnostics.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageSearch   Stage = "search"
	StageBrowse   Stage = "browse"
)

// ExhaustedError reports that every bounded attempt in the named stage came
// up empty. It is fatal for the run; nothing is published.
type ExhaustedError struct {
	Stage    Stage
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s stage exhausted after %d attempts", e.Stage, e.Attempts)
}

// MissingConfigError flags a required credential or identifier that was not
// set at startup. It surfaces before any network call and is never retried.
type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("required configuration is not set: %s", e.Name)
}
