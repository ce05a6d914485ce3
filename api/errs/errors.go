package errs

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized       = errors.New("authentication credentials were not provided or are invalid")
	ErrInvalidProjectID   = errors.New("project id must be an integer")
	ErrInvalidModelID     = errors.New("model id must be an integer")
	ErrNotProjectMember   = errors.New("you are not a member of this project")
	ErrExperimentNotFound = errors.New("experiment not found")
	ErrExperimentConflict = errors.New("experiment id belongs to another project")
	ErrMissingDeleteIDs   = errors.New("experiment ids to delete are not present")
	ErrMissingParamFields = errors.New("param_fields[] is required")
)

var ErrStatusMap = map[error]int{
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrInvalidProjectID:   http.StatusBadRequest,
	ErrInvalidModelID:     http.StatusBadRequest,
	ErrNotProjectMember:   http.StatusForbidden,
	ErrExperimentNotFound: http.StatusNotFound,
	ErrExperimentConflict: http.StatusConflict,
	ErrMissingDeleteIDs:   http.StatusBadRequest,
	ErrMissingParamFields: http.StatusBadRequest,
}

// StatusOf returns the status mapped to err, or 500 for unknown errors.
func StatusOf(err error) (int, error) {
	for knownErr, statusCode := range ErrStatusMap {
		if errors.Is(err, knownErr) {
			return statusCode, knownErr
		}
	}
	return http.StatusInternalServerError, nil
}
