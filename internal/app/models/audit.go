package models

import "time"

// AuditStatus records whether the audited operation succeeded
type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailed  AuditStatus = "failed"
)

// Audit actions
const (
	ActionLoginSuccess      = "LOGIN_SUCCESS"
	ActionLoginFailed       = "LOGIN_FAILED"
	ActionAdminCreated      = "ADMIN_CREATED"
	ActionAlumniCreated     = "ALUMNI_CREATED"
	ActionAlumniUpdated     = "ALUMNI_UPDATED"
	ActionArchiveAlumni     = "ARCHIVE_ALUMNI"
	ActionBulkArchiveAlumni = "BULK_ARCHIVE_ALUMNI"
	ActionRestoreAlumni     = "RESTORE_ALUMNI"
	ActionDeleteAlumni      = "DELETE_ALUMNI"
	ActionCleanupArchives   = "CLEANUP_ARCHIVES"
	ActionBulkUploadAlumni  = "BULK_UPLOAD_ALUMNI"
	ActionExportAlumni      = "EXPORT_ALUMNI"
	ActionPasswordReset     = "PASSWORD_RESET"
	ActionFormCompleted     = "FORM_COMPLETED"
)

// Audit target types
const (
	TargetAlumni = "alumni"
	TargetAdmin  = "admin"
	TargetBatch  = "batch"
)

// AuditEntry is one row of admin_audit_trail
type AuditEntry struct {
	ID         int64       `json:"id" db:"id"`
	AdminID    *int64      `json:"adminId,omitempty" db:"admin_id"`
	EmployeeID string      `json:"employeeId,omitempty" db:"employee_id"`
	Action     string      `json:"action" db:"action" example:"ARCHIVE_ALUMNI"`
	TargetType string      `json:"targetType" db:"target_type" example:"alumni"`
	TargetID   string      `json:"targetId" db:"target_id" example:"42"`
	Details    string      `json:"details" db:"details"`
	IPAddress  string      `json:"ipAddress" db:"ip_address"`
	UserAgent  string      `json:"userAgent" db:"user_agent"`
	Status     AuditStatus `json:"status" db:"status" example:"success"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}

// AuditFilter narrows audit trail listings
type AuditFilter struct {
	Action  string
	Status  AuditStatus
	AdminID *int64
	Since   *time.Time
	Page    int
	Size    int
}
