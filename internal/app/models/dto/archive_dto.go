package dto

import "github.com/yigit/alumnitrack/internal/app/models"

// ArchiveRequest archives one alumni record
type ArchiveRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Duplicate of record 17"`
}

// BulkArchiveRequest archives several alumni records
type BulkArchiveRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1,max=500,dive,min=1"`
	Reason string  `json:"reason" binding:"max=500"`
}

// ArchiveListResponse is a page of archive entries
type ArchiveListResponse struct {
	Entries    []models.ArchiveEntry `json:"entries"`
	Pagination PaginationInfo        `json:"pagination"`
}
