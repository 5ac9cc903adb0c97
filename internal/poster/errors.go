package poster

import (
	"errors"
	"strings"
)

var (
	ErrValidation      = errors.New("poster: required fields missing")
	ErrInvalidValue    = errors.New("poster: invalid value")
	ErrUnknownDay      = errors.New("poster: unknown weekday")
	ErrDayNotScheduled = errors.New("poster: day is not scheduled")
	ErrInvalidTime     = errors.New("poster: invalid time")
	ErrBusy            = errors.New("poster: action already in progress")
	ErrNoBackground    = errors.New("poster: no background image")
)

// ValidationError lists the form fields that must be filled before generating.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Missing, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
