package leave

import "errors"

var (
	ErrInvalidRange        = errors.New("end date is before start date")
	ErrPastDateNotAllowed  = errors.New("start date is in the past")
	ErrMissingReason       = errors.New("reason is required")
	ErrInvalidType         = errors.New("unknown leave type")
	ErrInvalidDecision     = errors.New("decision must be Approved or Rejected")
	ErrForbidden           = errors.New("forbidden")
	ErrAlreadyDecided      = errors.New("leave request already decided")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrNotFound            = errors.New("leave request not found")
	ErrInvalidStatus       = errors.New("unknown leave status")
)
