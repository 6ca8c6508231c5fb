package plans

import (
	"context"
	"errors"

	"github.com/vitalcoach/coach-api/internal/app/activity"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func validation(details map[string]any) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid request",
		Details: details,
	}
}

func activityUnavailable(err error) *Error {
	e := &Error{
		Status:  500,
		Code:    "ACTIVITY_UNAVAILABLE",
		Message: "could not fetch recent activity",
		cause:   err,
	}
	var aerr *activity.AggregateError
	if errors.As(err, &aerr) {
		domains := make([]string, 0, len(aerr.Failures))
		for _, d := range aerr.Domains() {
			domains = append(domains, string(d))
		}
		e.Details = map[string]any{"domains": domains}
	}
	return e
}

func generationFailed(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Status:  504,
			Code:    "GENERATION_TIMEOUT",
			Message: "plan generation timed out",
			cause:   err,
		}
	}
	return &Error{
		Status:  502,
		Code:    "GENERATION_FAILED",
		Message: "plan generation failed",
		cause:   err,
	}
}
