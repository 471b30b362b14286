package analysis

import "fmt"

// RemoteError is an error response from an analysis process
type RemoteError struct {
	Method  string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("analysis %s failed (code %d): %s", e.Method, e.Code, e.Message)
}
