package employee

import "time"

const (
	StatusWorking  = "Working"
	StatusBench    = "Bench"
	StatusInactive = "Inactive"
)

const (
	DefaultCasualLeave = 10
	DefaultSickLeave   = 10
	DefaultTotalLeave  = 22
)

type Employee struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	City           string    `json:"city"`
	Address        string    `json:"address"`
	Gender         string    `json:"gender"`
	Technology     string    `json:"technology"`
	ProfilePicture string    `json:"profilePicture"`
	Role           string    `json:"role"`
	WorkingStatus  string    `json:"workingStatus"`
	Active         bool      `json:"active"`
	CasualLeave    int       `json:"casualLeave"`
	SickLeave      int       `json:"sickLeave"`
	TotalLeave     int       `json:"totalLeave"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (e Employee) Balances() Balances {
	return Balances{Casual: e.CasualLeave, Sick: e.SickLeave, Total: e.TotalLeave}
}

type Balances struct {
	Casual int `json:"casualLeave"`
	Sick   int `json:"sickLeave"`
	Total  int `json:"totalLeave"`
}

type RegisterInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	Address    string `json:"address"`
	Gender     string `json:"gender"`
	Technology string `json:"technology"`
}

// ProfileUpdate carries the self-editable fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	City           *string `json:"city"`
	Address        *string `json:"address"`
	Gender         *string `json:"gender"`
	Technology     *string `json:"technology"`
	ProfilePicture *string `json:"profilePicture"`
}

type ListFilter struct {
	Query         string
	WorkingStatus string
	Limit         int
	Offset        int
}

type ListResult struct {
	Employees []Employee `json:"employees"`
	Total     int        `json:"total"`
}

// ResetTicket is what a password reset request produces for delivery.
type ResetTicket struct {
	Employee  Employee
	Token     string
	ExpiresAt time.Time
}
