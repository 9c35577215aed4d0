package booking

import (
	"regexp"
	"strings"

	"kvrdesk/models"
	"kvrdesk/utils"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minReasonLength = 10

// ValidEmail reports whether email looks like a deliverable address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeUserData trims every field and lowercases the email.
func NormalizeUserData(u models.UserData) models.UserData {
	return models.UserData{
		Name:   strings.TrimSpace(u.Name),
		Email:  strings.ToLower(strings.TrimSpace(u.Email)),
		Reason: strings.TrimSpace(u.Reason),
	}
}

// ValidateUserData returns every violation, in field order, or nil.
func ValidateUserData(u models.UserData) []string {
	var violations []string

	fields := []struct {
		name  string
		value string
	}{
		{"name", u.Name},
		{"email", u.Email},
		{"reason", u.Reason},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			violations = append(violations, "Missing required field: "+f.name)
		}
	}

	if email := strings.TrimSpace(u.Email); email != "" && !ValidEmail(email) {
		violations = append(violations, "Invalid email format")
	}
	if name := strings.TrimSpace(u.Name); name != "" && len(strings.Fields(name)) < 2 {
		violations = append(violations, "Please provide both first and last name")
	}
	if reason := strings.TrimSpace(u.Reason); reason != "" && len([]rune(reason)) < minReasonLength {
		violations = append(violations, "Please provide a more detailed reason (at least 10 characters)")
	}
	return violations
}

func validationError(violations []string) error {
	return utils.NewValidationError(msgInvalidUserData, violations)
}
