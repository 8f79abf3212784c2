package leave

import (
	"strings"
	"time"
)

// civil drops the clock so that day arithmetic is not skewed by zones or DST.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Duration is the inclusive day count from start to end.
func Duration(start, end time.Time) (int, error) {
	s, e := civil(start), civil(end)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

func ValidType(leaveType string) bool {
	for _, t := range Types {
		if t == leaveType {
			return true
		}
	}
	return false
}

// Validate checks a submission against today's civil date.
func Validate(in SubmitInput, today time.Time) error {
	if !ValidType(in.Type) {
		return ErrInvalidType
	}
	if civil(in.EndDate).Before(civil(in.StartDate)) {
		return ErrInvalidRange
	}
	if civil(in.StartDate).Before(civil(today)) {
		return ErrPastDateNotAllowed
	}
	if strings.TrimSpace(in.Reason) == "" {
		return ErrMissingReason
	}
	return nil
}

// BalanceColumn names the per type balance that approval must draw down.
// Types without a tracked balance return false.
func BalanceColumn(leaveType string) (string, bool) {
	switch leaveType {
	case TypeCasual:
		return "casual_leave", true
	case TypeSick:
		return "sick_leave", true
	default:
		return "", false
	}
}

func Terminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

