package score

import "fmt"

// ModelUnavailableError reports that a scoring backend cannot be reached or
// loaded. It is fatal for the run: there is no silent fallback to a different
// backend. Resource names what was unreachable so the caller can report it.
type ModelUnavailableError struct {
	Backend  string
	Resource string
	Err      error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("%s backend unavailable (%s): %v", e.Backend, e.Resource, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}
