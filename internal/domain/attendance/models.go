package attendance

import "time"

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

// Record is one employee's timesheet for one calendar day.
type Record struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	WorkDate    time.Time  `json:"workDate"`
	ClockIn     *time.Time `json:"clockIn,omitempty"`
	ClockOut    *time.Time `json:"clockOut,omitempty"`
	WorkingFrom string     `json:"workingFrom"`
	ClockInIP   string     `json:"clockInIp,omitempty"`
	HoursWorked float64    `json:"hoursWorked"`
	Status      string     `json:"status"`
	IsLate      bool       `json:"isLate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (r Record) Open() bool {
	return r.ClockIn != nil && r.ClockOut == nil
}

type DailyStatus struct {
	Status      string  `json:"status"`
	IsLate      bool    `json:"isLate"`
	HoursWorked float64 `json:"hoursWorked"`
}

type ClockInRequest struct {
	EmployeeID  string
	Date        time.Time
	WorkingFrom string
	ClientIP    string
	At          time.Time
}

// RosterEntry is a record joined with the employee it belongs to.
type RosterEntry struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	Email        string  `json:"email"`
	Record       *Record `json:"record,omitempty"`
	DailyStatus
}

type Dashboard struct {
	Date           string `json:"date"`
	TotalEmployees int    `json:"totalEmployees"`
	PresentToday   int    `json:"presentToday"`
	LateToday      int    `json:"lateToday"`
	OnLeaveToday   int    `json:"onLeaveToday"`
	AbsentToday    int    `json:"absentToday"`
}

type DayRow struct {
	Date        time.Time  `json:"date"`
	ClockIn     *time.Time `json:"clockIn,omitempty"`
	ClockOut    *time.Time `json:"clockOut,omitempty"`
	WorkingFrom string     `json:"workingFrom"`
	DailyStatus
}

type Summary struct {
	TotalDays         int     `json:"totalDays"`
	PresentDays       int     `json:"presentDays"`
	AbsentDays        int     `json:"absentDays"`
	LateArrivals      int     `json:"lateArrivals"`
	TotalHours        float64 `json:"totalHours"`
	AttendancePercent float64 `json:"attendancePercent"`
}

type MonthReport struct {
	EmployeeID string   `json:"employeeId"`
	Month      string   `json:"month"`
	Days       []DayRow `json:"days"`
	Summary    Summary  `json:"summary"`
}
