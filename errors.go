package mocache

import "fmt"

// CacheError indicates a catalog store operation failure.
type CacheError struct {
	Op      string // "get", "set", "delete" or "exists"
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error (%s): %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error (%s): %s", e.Op, e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// LoaderError indicates a catalog file could not be read or parsed.
type LoaderError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoaderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("loader error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("loader error (%s): %s", e.Path, e.Message)
}

func (e *LoaderError) Unwrap() error {
	return e.Cause
}

// RecordError indicates the durable domain index record could not be
// read or written.
type RecordError struct {
	Name    string
	Message string
	Cause   error
}

func (e *RecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("record error (%s): %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("record error (%s): %s", e.Name, e.Message)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}
