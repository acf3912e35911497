package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrAnalysisFailure is returned for every failure on the synchronous path:
// the inference call failed, timed out, or its output could not be parsed.
var ErrAnalysisFailure = errors.New("analysis failed")

// ErrMalformedResponse marks output that could not be repaired into the expected JSON object.
var ErrMalformedResponse = errors.New("malformed model response")

// MalformedResponseError carries the raw model output so it can be logged.
// It matches both ErrMalformedResponse and ErrAnalysisFailure.
type MalformedResponseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "malformed model response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed model response: " + e.Reason
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse || target == ErrAnalysisFailure
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
