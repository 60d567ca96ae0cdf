package dto

import "github.com/yigit/alumnitrack/internal/app/models"

// AuditListResponse is a page of audit trail entries
type AuditListResponse struct {
	Entries    []models.AuditEntry `json:"entries"`
	Pagination PaginationInfo      `json:"pagination"`
}
