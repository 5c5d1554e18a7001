package graph

import "errors"

// ErrNotSuspended is returned by ResumeWith when the target run exists
// but is not waiting at a suspension point. Callers must not retry with
// the same delta; the run either finished or is still executing.
var ErrNotSuspended = errors.New("run is not suspended")

// Machine-readable codes carried by EngineError.
const (
	CodeDuplicateNode    = "DUPLICATE_NODE"
	CodeNodeNotFound     = "NODE_NOT_FOUND"
	CodeMissingReducer   = "MISSING_REDUCER"
	CodeMissingStore     = "MISSING_STORE"
	CodeNoStartNode      = "NO_START_NODE"
	CodeMaxStepsExceeded = "MAX_STEPS_EXCEEDED"
	CodeNoRoute          = "NO_ROUTE"
	CodeUnknownBranch    = "UNKNOWN_BRANCH"
	CodeStoreError       = "STORE_ERROR"
	CodeNodeTimeout      = "NODE_TIMEOUT"
	CodeRunNotFound      = "RUN_NOT_FOUND"
)

// EngineError represents an error from Engine operations.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// HasCode reports whether err is an EngineError carrying the given code.
func HasCode(err error, code string) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}
