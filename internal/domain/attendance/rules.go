package attendance

import (
	"math"
	"sort"
	"time"
)

const DefaultLateAfter = 9*time.Hour + 15*time.Minute

// Policy holds the site rules used to derive daily status.
type Policy struct {
	Location  *time.Location
	LateAfter time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Location: time.UTC, LateAfter: DefaultLateAfter}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// IsLate reports whether clockIn's local time of day is strictly after the threshold.
func (p Policy) IsLate(clockIn time.Time) bool {
	return sinceMidnight(clockIn.In(p.location())) > p.LateAfter
}

// Date returns the civil date of t in the policy location, as midnight UTC.
func (p Policy) Date(t time.Time) time.Time {
	local := t.In(p.location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DeriveDailyStatus recomputes status, lateness and hours from the clock pair alone.
func (p Policy) DeriveDailyStatus(r Record) DailyStatus {
	if r.ClockIn == nil {
		return DailyStatus{Status: StatusAbsent}
	}
	out := DailyStatus{Status: StatusPresent, IsLate: p.IsLate(*r.ClockIn)}
	if r.ClockOut != nil {
		out.HoursWorked = HoursWorked(*r.ClockIn, *r.ClockOut)
	}
	return out
}

// HoursWorked is the interval in hours rounded to two decimals.
func HoursWorked(clockIn, clockOut time.Time) float64 {
	return round2(clockOut.Sub(clockIn).Hours())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// Workdays lists Monday to Friday dates of month, stopping after through.
func Workdays(month, through time.Time) []time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if d.After(through) {
			break
		}
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}

// BuildMonth lays records over the workdays of month up to through. Weekend
// records are kept so overtime days still show up.
func (p Policy) BuildMonth(employeeID string, month, through time.Time, records []Record) MonthReport {
	byDate := make(map[string]Record, len(records))
	for _, r := range records {
		byDate[r.WorkDate.Format("2006-01-02")] = r
	}

	days := Workdays(month, through)
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		seen[d.Format("2006-01-02")] = true
	}
	for key, r := range byDate {
		if !seen[key] {
			days = append(days, r.WorkDate)
			seen[key] = true
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	report := MonthReport{EmployeeID: employeeID, Month: month.Format("2006-01")}
	for _, d := range days {
		row := DayRow{Date: d, WorkingFrom: "-"}
		if r, ok := byDate[d.Format("2006-01-02")]; ok {
			row.ClockIn = r.ClockIn
			row.ClockOut = r.ClockOut
			if r.WorkingFrom != "" {
				row.WorkingFrom = r.WorkingFrom
			}
			row.DailyStatus = p.DeriveDailyStatus(r)
		} else {
			row.DailyStatus = DailyStatus{Status: StatusAbsent}
		}
		report.Days = append(report.Days, row)
	}
	report.Summary = Summarize(report.Days)
	return report
}

func Summarize(days []DayRow) Summary {
	s := Summary{TotalDays: len(days)}
	var hours float64
	for _, d := range days {
		if d.Status == StatusPresent {
			s.PresentDays++
		}
		if d.IsLate {
			s.LateArrivals++
		}
		hours += d.HoursWorked
	}
	s.AbsentDays = s.TotalDays - s.PresentDays
	s.TotalHours = round2(hours)
	if s.TotalDays > 0 {
		s.AttendancePercent = round2(float64(s.PresentDays) * 100 / float64(s.TotalDays))
	}
	return s
}
