package portal

import "strings"

// Role is the portal role of a user. A user holds exactly one role for the
// lifetime of a session.
type Role string

const (
	// RoleAdmin runs the campus (users, timetables, analytics)
	RoleAdmin Role = "admin"
	// RoleFaculty teaches (schedule, attendance, student performance)
	RoleFaculty Role = "faculty"
	// RoleStudent attends (timetable, attendance, assignments)
	RoleStudent Role = "student"
	// RoleParent follows a child's progress
	RoleParent Role = "parent"
)

// RoleInfo describes a role for display purposes.
type RoleInfo struct {
	Role        Role
	Title       string
	Description string
	Features    []string
}

var roleCatalog = map[Role]RoleInfo{
	RoleAdmin: {
		Role:        RoleAdmin,
		Title:       "Administrator",
		Description: "Full system control and analytics",
		Features:    []string{"User Management", "Timetable Generation", "System Analytics", "Configuration"},
	},
	RoleFaculty: {
		Role:        RoleFaculty,
		Title:       "Faculty",
		Description: "Schedule management and student interaction",
		Features:    []string{"Class Schedule", "Attendance Management", "Student Performance", "Assignments"},
	},
	RoleStudent: {
		Role:        RoleStudent,
		Title:       "Student",
		Description: "Personal academic dashboard",
		Features:    []string{"My Timetable", "Attendance Tracking", "Performance Metrics", "Assignments"},
	},
	RoleParent: {
		Role:        RoleParent,
		Title:       "Parent",
		Description: "Child progress monitoring",
		Features:    []string{"Child Progress", "Attendance Reports", "Performance Tracking", "Communication"},
	},
}

// IsValid checks if the role is one of the portal roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent, RoleParent:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}

// Info returns the display information of the role
func (r Role) Info() (RoleInfo, bool) {
	info, ok := roleCatalog[r]
	if !ok {
		return RoleInfo{}, false
	}
	info.Features = append([]string(nil), info.Features...)
	return info, true
}

// Title returns the display name of the role, or the raw value for unknown roles
func (r Role) Title() string {
	if info, ok := roleCatalog[r]; ok {
		return info.Title
	}
	return string(r)
}

// HomePath is the root of the view subtree owned by the role
func (r Role) HomePath() string {
	if !r.IsValid() {
		return PathLanding
	}
	return "/" + string(r)
}

// AllRoles returns the portal roles in display order
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleFaculty,
		RoleStudent,
		RoleParent,
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	return role, role.IsValid()
}
