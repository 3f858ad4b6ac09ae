package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoStore         = errors.New("job history store not configured")
	ErrInvalidJobID    = errors.New("invalid job id")
	ErrAlreadyFinished = errors.New("job already finished")
)
