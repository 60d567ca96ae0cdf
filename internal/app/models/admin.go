package models

import "time"

// Admin is a staff account allowed to manage alumni records
type Admin struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Email       string     `json:"email" db:"email" example:"registrar@school.edu"`
	Password    string     `json:"-" db:"password"`
	FullName    string     `json:"fullName" db:"full_name" example:"Maria Santos"`
	EmployeeID  string     `json:"employeeId" db:"employee_id" example:"EMP-0042"`
	Department  *string    `json:"department,omitempty" db:"department" example:"Registrar"`
	Role        AdminRole  `json:"role" db:"role" example:"admin"`
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// RefreshToken is a stored, revocable refresh token
type RefreshToken struct {
	ID         int64      `db:"id"`
	AdminID    int64      `db:"admin_id"`
	Token      string     `db:"token"`
	ExpiresAt  time.Time  `db:"expires_at"`
	IsRevoked  bool       `db:"is_revoked"`
	UserAgent  string     `db:"user_agent"`
	IPAddress  string     `db:"ip_address"`
	CreatedAt  time.Time  `db:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at"`
}

// PasswordResetToken is a single-use token emailed to an admin
type PasswordResetToken struct {
	ID        int64      `db:"id"`
	AdminID   int64      `db:"admin_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}
