package validation_test

import (
	"strings"
	"testing"

	"github.com/yigit/alumnitrack/internal/pkg/validation"
)

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{"strong", "Str0ng!Pass", nil},
		{"short", "Ab1!", []string{validation.MsgPasswordTooShort}},
		{"no upper", "weak1!pass", []string{validation.MsgPasswordNoUpper}},
		{"no lower", "WEAK1!PASS", []string{validation.MsgPasswordNoLower}},
		{"no digit", "Weak!Pass", []string{validation.MsgPasswordNoDigit}},
		{"no special", "Weak1Pass", []string{validation.MsgPasswordNoSpecial}},
		{"empty", "", []string{
			validation.MsgPasswordTooShort,
			validation.MsgPasswordNoUpper,
			validation.MsgPasswordNoLower,
			validation.MsgPasswordNoDigit,
			validation.MsgPasswordNoSpecial,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validation.PasswordStrength(tt.password)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPasswordStrengthMessageJoins(t *testing.T) {
	msg := validation.PasswordStrengthMessage("abcdefgh")
	want := validation.MsgPasswordNoUpper + "; " + validation.MsgPasswordNoDigit + "; " + validation.MsgPasswordNoSpecial
	if msg != want {
		t.Fatalf("expected %q, got %q", want, msg)
	}
}

func TestIsEmployeeIDLogin(t *testing.T) {
	if !validation.IsEmployeeIDLogin("EMP-001") {
		t.Fatal("expected employee id")
	}
	if validation.IsEmployeeIDLogin("admin@school.edu") {
		t.Fatal("expected email login")
	}
}

type sample struct {
	Email      string `validate:"required,email"`
	EmployeeID string `validate:"required,employeeid"`
	Birthday   string `validate:"birthday"`
}

func TestValidateStruct(t *testing.T) {
	if errs := validation.ValidateStruct(sample{Email: "a@b.co", EmployeeID: "EMP-1", Birthday: "1999-01-02"}); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}

	errs := validation.ValidateStruct(sample{Email: "nope", EmployeeID: "!", Birthday: "01/02/1999"})
	for _, field := range []string{"email", "employeeID", "birthday"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}
}
