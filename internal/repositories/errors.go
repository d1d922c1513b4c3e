package repositories

import "errors"

var (
	// ErrNotFound is a negative lookup result, not a failure.
	ErrNotFound = errors.New("certificate not found")
	// ErrInvalidID rejects ids that would escape the store directory.
	ErrInvalidID = errors.New("invalid certificate id")
)

func validateID(id string) error {
	if id == "" || id == "." || id == ".." {
		return ErrInvalidID
	}
	for _, r := range id {
		if r == '/' || r == '\\' || r == 0 {
			return ErrInvalidID
		}
	}
	return nil
}
