package accounts

import "github.com/vitalcoach/coach-api/internal/domain"

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
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

// Is lets callers outside this package match a missing profile with domain.ErrProfileNotFound.
func (e *Error) Is(target error) bool {
	return target == domain.ErrProfileNotFound && e != nil && e.Code == "PROFILE_NOT_FOUND"
}

func notFound() *Error {
	return &Error{
		Status:  404,
		Code:    "PROFILE_NOT_FOUND",
		Message: "No profile exists for the authenticated user.",
	}
}
