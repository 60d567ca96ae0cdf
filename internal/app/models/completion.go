package models

import "time"

// Profile sections
const (
	SectionPersonal = "personal"
	SectionAcademic = "academic"
	SectionCareer   = "career"
)

// TotalSections is the number of profile sections tracked for completion
const TotalSections = 3

// SectionStatus is per-section completeness
type SectionStatus struct {
	Personal bool `json:"personal"`
	Academic bool `json:"academic"`
	Career   bool `json:"career"`
}

// CompletionStatus is the derived completion projection of one alumni record
type CompletionStatus struct {
	AlumniID          int64               `json:"alumniId"`
	CompletedSections int                 `json:"completedSections" example:"2"`
	TotalSections     int                 `json:"totalSections" example:"3"`
	Sections          SectionStatus       `json:"sections"`
	MissingFields     map[string][]string `json:"missingFields,omitempty"`
}

// FormType names a legacy form tracked in alumni_form_completion
type FormType string

const (
	FormBasicInfo        FormType = "basic_info"
	FormEducationDetails FormType = "education_details"
	FormCareerInfo       FormType = "career_info"
)

// IsValid reports whether f is a tracked form
func (f FormType) IsValid() bool {
	switch f {
	case FormBasicInfo, FormEducationDetails, FormCareerInfo:
		return true
	}
	return false
}

// FormCompletion is one row of alumni_form_completion
type FormCompletion struct {
	ID          int64      `json:"id" db:"id"`
	AlumniID    int64      `json:"alumniId" db:"alumni_id"`
	FormType    FormType   `json:"formType" db:"form_type"`
	IsCompleted bool       `json:"isCompleted" db:"is_completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}
