package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// Validation rule patterns
var (
	EmailPattern = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`

	// Employee IDs are alphanumeric with optional dashes
	EmployeeIDPattern = `^[A-Za-z0-9\-]{3,32}$`

	// Birthdays arrive as YYYY-MM-DD
	BirthdayPattern = `^\d{4}-\d{1,2}-\d{1,2}$`

	PasswordMinLength = 8

	NameMinLength = 2
	NameMaxLength = 150
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email      *regexp.Regexp
	EmployeeID *regexp.Regexp
	Birthday   *regexp.Regexp
}{
	Email:      regexp.MustCompile(EmailPattern),
	EmployeeID: regexp.MustCompile(EmployeeIDPattern),
	Birthday:   regexp.MustCompile(BirthdayPattern),
}

// Password strength messages
const (
	MsgPasswordTooShort  = "Minimum 8 characters required"
	MsgPasswordNoUpper   = "Must contain at least one uppercase letter"
	MsgPasswordNoLower   = "Must contain at least one lowercase letter"
	MsgPasswordNoDigit   = "Must contain at least one number"
	MsgPasswordNoSpecial = "Must contain at least one special character (!@#$%^&*etc)"
)

// PasswordStrength returns every rule the password violates, in a fixed order
func PasswordStrength(password string) []string {
	var problems []string
	if len(password) < PasswordMinLength {
		problems = append(problems, MsgPasswordTooShort)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		problems = append(problems, MsgPasswordNoUpper)
	}
	if !hasLower {
		problems = append(problems, MsgPasswordNoLower)
	}
	if !hasDigit {
		problems = append(problems, MsgPasswordNoDigit)
	}
	if !hasSpecial {
		problems = append(problems, MsgPasswordNoSpecial)
	}
	return problems
}

// PasswordStrengthMessage joins PasswordStrength results, empty when the password is acceptable
func PasswordStrengthMessage(password string) string {
	return strings.Join(PasswordStrength(password), "; ")
}

// IsEmployeeIDLogin reports whether a login identifier should be treated as an employee ID
func IsEmployeeIDLogin(identifier string) bool {
	return !strings.Contains(identifier, "@")
}

// String validation
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	value := strings.TrimSpace(v.Value)
	if value == "" {
		return !v.Required
	}

	if v.MinLen > 0 && len(value) < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && len(value) > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return false
	}
	return true
}
