package profilerepo

import "errors"

var (
	// ErrNotFound indicates no profile is stored for the user.
	ErrNotFound = errors.New("profile not found")
)
