package leave

import "time"

const (
	TypeCasual    = "Casual Leave"
	TypeSick      = "Sick Leave"
	TypeEmergency = "Emergency Leave"
	TypeMaternity = "Maternity Leave"
	TypePaternity = "Paternity Leave"
)

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

var Types = []string{TypeCasual, TypeSick, TypeEmergency, TypeMaternity, TypePaternity}

type Request struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	Type         string     `json:"leaveType"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	Days         int        `json:"days"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	Comments     string     `json:"comments,omitempty"`
	DecidedBy    *string    `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type SubmitInput struct {
	EmployeeID string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Decision is an admin's verdict on a pending request.
type Decision struct {
	LeaveID        string
	Status         string
	DeciderID      string
	DeciderIsAdmin bool
	Comments       string
}

type ListFilter struct {
	EmployeeID string
	Status     string
	Limit      int
	Offset     int
}

type ListResult struct {
	Requests []Request `json:"requests"`
	Total    int       `json:"total"`
}
