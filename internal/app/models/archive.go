package models

import "time"

// RetentionDays is how long an archived record is kept before it becomes eligible for cleanup
const RetentionDays = 30

// ArchiveStatus is the display status of an archive entry
type ArchiveStatus string

const (
	ArchiveStatusArchived        ArchiveStatus = "Archived"
	ArchiveStatusPendingDeletion ArchiveStatus = "Pending Deletion"
	ArchiveStatusRestored        ArchiveStatus = "Restored"
)

// ArchiveEntry is an alumni record viewed through the archive
type ArchiveEntry struct {
	Alumni        *Alumni       `json:"alumni"`
	DaysRemaining *int          `json:"daysRemaining,omitempty" example:"12"`
	Status        ArchiveStatus `json:"status" example:"Archived"`
}

// ArchiveFilter narrows archive listings. Status is archived, restored or pending.
type ArchiveFilter struct {
	Status string
	Search string
	Page   int
	Size   int
}

// ArchiveStats summarizes the archive
type ArchiveStats struct {
	Archived        int64 `json:"archived"`
	Restored        int64 `json:"restored"`
	PendingDeletion int64 `json:"pendingDeletion"`
}

// ArchiveCutoff returns the archived_at instant before which records are past retention
func ArchiveCutoff(now time.Time) time.Time {
	return now.Add(-RetentionDays * 24 * time.Hour)
}
