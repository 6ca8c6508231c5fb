package domain

import "errors"

// ErrProfileNotFound is matched (errors.Is) by any profile source error meaning the user has no
// stored profile.
var ErrProfileNotFound = errors.New("profile not found")
