package attendance

import "errors"

var (
	ErrAlreadyClockedIn = errors.New("already clocked in for this date")
	ErrNotClockedIn     = errors.New("no open clock-in for this date")
	ErrInvalidInterval  = errors.New("clock-out is before clock-in")
	ErrNotFound         = errors.New("timesheet not found")
	ErrInvalidInput     = errors.New("invalid attendance input")
)
