package profiles

// Error is an application-layer error that can be mapped to a user-facing message.
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

func validationError(msg string, details map[string]any) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: msg,
		Details: details,
	}
}
