package models

import (
	"strings"
	"time"
)

// Alumni is a row of alumni_profiles
type Alumni struct {
	ID            int64      `json:"id" db:"id" example:"1"`
	StudentNumber string     `json:"studentNumber" db:"student_number" example:"2019-00123"`
	Email         string     `json:"email" db:"email" example:"jane.doe@example.com"`
	FullName      string     `json:"fullName" db:"full_name" example:"Jane Doe"`
	BirthMonth    string     `json:"birthMonth" db:"birth_month" example:"04"`
	BirthDay      string     `json:"birthDay" db:"birth_day" example:"17"`
	BirthYear     string     `json:"birthYear" db:"birth_year" example:"1998"`
	Contact       string     `json:"contact" db:"contact" example:"09171234567"`
	Street        string     `json:"street" db:"street"`
	Province      string     `json:"province" db:"province"`
	Municipality  string     `json:"municipality" db:"municipality"`
	Barangay      string     `json:"barangay" db:"barangay"`
	Degree        string     `json:"degree" db:"degree" example:"BS Computer Science"`
	Major         string     `json:"major" db:"major"`
	Honors        string     `json:"honors" db:"honors"`
	GraduatedYear string     `json:"graduatedYear" db:"graduated_year" example:"2020"`
	DegreeLabel   string     `json:"degreeLabel" db:"degree_label"`
	JobStatus     JobStatus  `json:"jobStatus,omitempty" db:"job_status" example:"employed"`
	CurrentJob    string     `json:"currentJob" db:"current_job"`
	CareerPath    string     `json:"careerPath" db:"career_path"`
	IsRelated     *bool      `json:"isRelated,omitempty" db:"is_related"` // nil means not answered
	IsActive      bool       `json:"isActive" db:"is_active"`
	IsArchived    bool       `json:"isArchived" db:"is_archived"`
	ArchivedAt    *time.Time `json:"archivedAt,omitempty" db:"archived_at"`
	ArchiveReason *string    `json:"archiveReason,omitempty" db:"archive_reason"`
	ArchivedBy    *int64     `json:"archivedBy,omitempty" db:"archived_by"`
	IsRestored    bool       `json:"isRestored" db:"is_restored"`
	RestoredAt    *time.Time `json:"restoredAt,omitempty" db:"restored_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// State returns the lifecycle state derived from the archive flag
func (a *Alumni) State() LifecycleState {
	if a.IsArchived {
		return StateArchived
	}
	return StateActive
}

// DisplayName prefers the full name, falling back to email then student number
func (a *Alumni) DisplayName() string {
	for _, s := range []string{a.FullName, a.Email, a.StudentNumber} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// AlumniFilter narrows alumni listings
type AlumniFilter struct {
	Search        string
	JobStatus     JobStatus
	GraduatedYear string
	Degree        string
	State         LifecycleState
	Page          int
	Size          int
}
