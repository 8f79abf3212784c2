package attendance

import (
	"testing"
	"time"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 1, 10, h, m, s, 0, time.UTC)
}

func TestIsLateThreshold(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		name string
		in   time.Time
		want bool
	}{
		{"nine sharp", at(9, 0, 0), false},
		{"on threshold", at(9, 15, 0), false},
		{"one second after", at(9, 15, 1), true},
		{"quarter past ten", at(10, 5, 0), true},
		{"early bird", at(7, 59, 59), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.IsLate(tc.in); got != tc.want {
				t.Fatalf("IsLate(%s) = %v, want %v", tc.in.Format("15:04:05"), got, tc.want)
			}
		})
	}
}

func TestIsLateUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	p := Policy{Location: loc, LateAfter: DefaultLateAfter}

	// 03:50 UTC is 09:20 IST.
	if !p.IsLate(time.Date(2024, 1, 10, 3, 50, 0, 0, time.UTC)) {
		t.Fatal("expected late in IST")
	}
	// 03:40 UTC is 09:10 IST.
	if p.IsLate(time.Date(2024, 1, 10, 3, 40, 0, 0, time.UTC)) {
		t.Fatal("expected on time in IST")
	}
}

func TestHoursWorkedRoundsToTwoDecimals(t *testing.T) {
	in := at(9, 0, 0)
	cases := []struct {
		out  time.Time
		want float64
	}{
		{at(17, 0, 0), 8},
		{at(17, 20, 0), 8.33},
		{at(17, 40, 0), 8.67},
		{at(9, 0, 0), 0},
		{at(9, 0, 36), 0.01},
	}
	for _, tc := range cases {
		if got := HoursWorked(in, tc.out); got != tc.want {
			t.Fatalf("HoursWorked to %s = %v, want %v", tc.out.Format("15:04:05"), got, tc.want)
		}
	}
}

func TestDeriveDailyStatus(t *testing.T) {
	p := DefaultPolicy()

	if got := p.DeriveDailyStatus(Record{}); got != (DailyStatus{Status: StatusAbsent}) {
		t.Fatalf("expected absent, got %+v", got)
	}

	in, out := at(9, 30, 0), at(18, 0, 0)
	got := p.DeriveDailyStatus(Record{ClockIn: &in, ClockOut: &out})
	want := DailyStatus{Status: StatusPresent, IsLate: true, HoursWorked: 8.5}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	open := p.DeriveDailyStatus(Record{ClockIn: &in})
	if open.Status != StatusPresent || open.HoursWorked != 0 {
		t.Fatalf("unexpected open record status %+v", open)
	}
}

func TestPolicyDate(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	p := Policy{Location: loc}
	// 2024-01-11 02:00 UTC is still 2024-01-10 in PST.
	got := p.Date(time.Date(2024, 1, 11, 2, 0, 0, 0, time.UTC))
	if got.Format("2006-01-02") != "2024-01-10" || got.Location() != time.UTC {
		t.Fatalf("unexpected civil date %v", got)
	}
}

func TestWorkdays(t *testing.T) {
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	all := Workdays(month, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	if len(all) != 23 {
		t.Fatalf("expected 23 workdays in Jan 2024, got %d", len(all))
	}
	partial := Workdays(month, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if len(partial) != 8 {
		t.Fatalf("expected 8 workdays through Jan 10, got %d", len(partial))
	}
}

func TestBuildMonthSummary(t *testing.T) {
	p := DefaultPolicy()
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	through := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	in1, out1 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 17, 0, 0, 0, time.UTC)
	in2, out2 := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC), time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC)
	records := []Record{
		{WorkDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ClockIn: &in1, ClockOut: &out1, WorkingFrom: "Office"},
		{WorkDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), ClockIn: &in2, ClockOut: &out2, WorkingFrom: "Home"},
	}

	report := p.BuildMonth("emp-1", month, through, records)
	if len(report.Days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(report.Days))
	}
	s := report.Summary
	if s.PresentDays != 2 || s.AbsentDays != 3 || s.LateArrivals != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.TotalHours != 16.5 {
		t.Fatalf("expected 16.5 hours, got %v", s.TotalHours)
	}
	if s.AttendancePercent != 40 {
		t.Fatalf("expected 40%%, got %v", s.AttendancePercent)
	}
	if report.Days[0].WorkingFrom != "-" || report.Days[2].WorkingFrom != "Home" {
		t.Fatalf("unexpected working from values: %+v", report.Days)
	}
}

func TestBuildMonthKeepsWeekendRecords(t *testing.T) {
	p := DefaultPolicy()
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sat := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	in := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)

	report := p.BuildMonth("emp-1", month, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), []Record{{WorkDate: sat, ClockIn: &in}})
	if len(report.Days) != 7 {
		t.Fatalf("expected 6 workdays plus saturday, got %d", len(report.Days))
	}
	if !report.Days[5].Date.Equal(sat) {
		t.Fatalf("expected saturday in date order, got %v", report.Days[5].Date)
	}
}
