package auth

import "context"

const (
	RoleEmployee = "Employee"
	RoleAdmin    = "Admin"
)

const (
	PermProfileRead     = "profile.read"
	PermProfileWrite    = "profile.write"
	PermEmployeesRead   = "employees.read"
	PermEmployeesWrite  = "employees.write"
	PermAttendanceWrite = "attendance.write"
	PermAttendanceRead  = "attendance.read"
	PermAttendanceAdmin = "attendance.admin"
	PermLeaveRead       = "leave.read"
	PermLeaveWrite      = "leave.write"
	PermLeaveApprove    = "leave.approve"
	PermNoticesRead     = "notices.read"
	PermNoticesWrite    = "notices.write"
	PermMetricsRead     = "metrics.read"
	PermAuditRead       = "audit.read"
	PermReportsRead     = "reports.read"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermProfileRead,
		PermProfileWrite,
		PermAttendanceWrite,
		PermAttendanceRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermNoticesRead,
	},
	RoleAdmin: {
		PermProfileRead,
		PermProfileWrite,
		PermEmployeesRead,
		PermEmployeesWrite,
		PermAttendanceWrite,
		PermAttendanceRead,
		PermAttendanceAdmin,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermNoticesRead,
		PermNoticesWrite,
		PermMetricsRead,
		PermAuditRead,
		PermReportsRead,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct {
	index map[string]map[string]struct{}
}

func NewStaticPermissions() *StaticPermissions {
	index := make(map[string]map[string]struct{}, len(RolePermissions))
	for role, perms := range RolePermissions {
		set := make(map[string]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		index[role] = set
	}
	return &StaticPermissions{index: index}
}

func (p *StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	perms, ok := p.index[role]
	if !ok {
		return false, nil
	}
	_, ok = perms[permission]
	return ok, nil
}
