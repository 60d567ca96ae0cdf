package dto

import (
	"strings"

	"github.com/yigit/alumnitrack/internal/app/models"
)

// AlumniRequest creates or replaces an alumni profile
type AlumniRequest struct {
	StudentNumber string `json:"studentNumber" binding:"required,max=64"`
	Email         string `json:"email" binding:"omitempty,email"`
	FullName      string `json:"fullName" binding:"required,min=2,max=200"`
	BirthMonth    string `json:"birthMonth"`
	BirthDay      string `json:"birthDay"`
	BirthYear     string `json:"birthYear"`
	Contact       string `json:"contact"`
	Street        string `json:"street"`
	Province      string `json:"province"`
	Municipality  string `json:"municipality"`
	Barangay      string `json:"barangay"`
	Degree        string `json:"degree"`
	Major         string `json:"major"`
	Honors        string `json:"honors"`
	GraduatedYear string `json:"graduatedYear"`
	DegreeLabel   string `json:"degreeLabel"`
	JobStatus     string `json:"jobStatus" binding:"omitempty,oneof=employed self-employed freelancer unemployed other"`
	CurrentJob    string `json:"currentJob"`
	CareerPath    string `json:"careerPath"`
	IsRelated     *bool  `json:"isRelated"`
}

// ToModel copies the request onto a fresh models.Alumni
func (r *AlumniRequest) ToModel() *models.Alumni {
	jobStatus, _ := models.ParseJobStatus(r.JobStatus)
	return &models.Alumni{
		StudentNumber: strings.TrimSpace(r.StudentNumber),
		Email:         strings.TrimSpace(r.Email),
		FullName:      strings.TrimSpace(r.FullName),
		BirthMonth:    r.BirthMonth,
		BirthDay:      r.BirthDay,
		BirthYear:     r.BirthYear,
		Contact:       r.Contact,
		Street:        r.Street,
		Province:      r.Province,
		Municipality:  r.Municipality,
		Barangay:      r.Barangay,
		Degree:        r.Degree,
		Major:         r.Major,
		Honors:        r.Honors,
		GraduatedYear: r.GraduatedYear,
		DegreeLabel:   r.DegreeLabel,
		JobStatus:     jobStatus,
		CurrentJob:    r.CurrentJob,
		CareerPath:    r.CareerPath,
		IsRelated:     r.IsRelated,
		IsActive:      true,
	}
}

// DuplicateCheckRequest asks whether an email or student number is already taken
type DuplicateCheckRequest struct {
	Email         string `json:"email"`
	StudentNumber string `json:"studentNumber"`
	ExcludeID     *int64 `json:"excludeId"`
}

// AlumniResponse is an alumni record with its completion projection
type AlumniResponse struct {
	*models.Alumni
	State      models.LifecycleState    `json:"state" example:"active"`
	Completion *models.CompletionStatus `json:"completion,omitempty"`
}

// AlumniListResponse is a page of alumni records
type AlumniListResponse struct {
	Alumni     []AlumniResponse `json:"alumni"`
	Pagination PaginationInfo   `json:"pagination"`
}

// FormCompletionListResponse lists legacy form completion rows
type FormCompletionListResponse struct {
	AlumniID int64                   `json:"alumniId"`
	Forms    []models.FormCompletion `json:"forms"`
}
