package runtime

import "fmt"

// ReplayError reports the input that a replay could not apply.
type ReplayError struct {
	Step int
	Err  error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay step %d: %v", e.Step, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}
