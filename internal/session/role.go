package session

import "strings"

// Role is the kind of account a user logs in or registers as
type Role int

const (
	RoleNone Role = iota
	RoleStudent
	RoleTeacher
)

// Endpoints are the role-specific authentication paths
type Endpoints struct {
	Login    string
	Register string
}

var endpointTable = map[Role]Endpoints{
	RoleStudent: {Login: "/student/login/", Register: "/student/register/"},
	RoleTeacher: {Login: "/teacher/login/", Register: "/teacher/register/"},
}

// Roles lists every selectable role
func Roles() []Role {
	return []Role{RoleStudent, RoleTeacher}
}

// ParseRole maps "student"/"teacher" onto a Role. Anything else is RoleNone.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent
	case "teacher":
		return RoleTeacher
	default:
		return RoleNone
	}
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	default:
		return ""
	}
}

// Valid reports whether r is a selectable role
func (r Role) Valid() bool {
	_, ok := endpointTable[r]
	return ok
}

// Endpoints returns the authentication paths for r
func (r Role) Endpoints() (Endpoints, bool) {
	e, ok := endpointTable[r]
	return e, ok
}
