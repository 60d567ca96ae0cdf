package models

import "strings"

// AdminRole defines the admin role type
type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

// IsValid reports whether r is a known role
func (r AdminRole) IsValid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// JobStatus is the employment state an alumnus reports
type JobStatus string

const (
	JobStatusEmployed     JobStatus = "employed"
	JobStatusSelfEmployed JobStatus = "self-employed"
	JobStatusFreelancer   JobStatus = "freelancer"
	JobStatusUnemployed   JobStatus = "unemployed"
	JobStatusOther        JobStatus = "other"
)

// JobStatuses lists every accepted job status in display order
var JobStatuses = []JobStatus{
	JobStatusEmployed,
	JobStatusSelfEmployed,
	JobStatusFreelancer,
	JobStatusUnemployed,
	JobStatusOther,
}

// ParseJobStatus normalizes s; the second result is false for unknown values
func ParseJobStatus(s string) (JobStatus, bool) {
	v := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return "", true
	}
	for _, js := range JobStatuses {
		if js == v {
			return v, true
		}
	}
	return "", false
}

// LifecycleState is derived from the archive flag
type LifecycleState string

const (
	StateActive   LifecycleState = "active"
	StateArchived LifecycleState = "archived"
	StateAll      LifecycleState = "all"
)

// Actor identifies the admin performing an operation and where the request came from
type Actor struct {
	AdminID    int64
	EmployeeID string
	Role       AdminRole
	IPAddress  string
	UserAgent  string
}

// IsSuperAdmin reports whether the actor holds the super admin role
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}
