package poller

import "fmt"

// SourceResolutionError is returned when the latest stream of a source
// cannot be resolved
type SourceResolutionError struct {
	Source   string
	LogGroup string
	Err      error
}

func (e *SourceResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve latest stream of %s: %v", e.LogGroup, e.Err)
}

func (e *SourceResolutionError) Unwrap() error { return e.Err }

// RecordFetchError is returned when records of a resolved stream cannot be read
type RecordFetchError struct {
	Source string
	Stream string
	Err    error
}

func (e *RecordFetchError) Error() string {
	return fmt.Sprintf("failed to fetch records from %s: %v", e.Stream, e.Err)
}

func (e *RecordFetchError) Unwrap() error { return e.Err }

// FatalLoopError stops the poller. It is only produced by failures outside
// the per-source boundary, such as a broken output stream.
type FatalLoopError struct {
	Err error
}

func (e *FatalLoopError) Error() string {
	return fmt.Sprintf("log poller stopped: %v", e.Err)
}

func (e *FatalLoopError) Unwrap() error { return e.Err }
