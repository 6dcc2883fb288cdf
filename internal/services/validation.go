package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/query"
)

const (
	msgFirstName = "First name is required and must be at least 2 characters"
	msgLastName  = "Last name is required and must be at least 2 characters"
	msgEmail     = "Valid email is required"
	msgGender    = "Gender must be MALE, FEMALE, or OTHER"
	msgPhone     = "Valid phone number is required (at least 10 digits)"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-()]+$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// ValidationError carries every failed field rule for a request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// normalizedUser is a UserInput after sanitizing. Nil fields were not supplied.
type normalizedUser struct {
	firstName, lastName, email, gender, phone *string
}

// normalize sanitizes the supplied fields and validates them. With partial
// set, absent fields are skipped; otherwise every field is required.
func normalize(in *dto.UserInput, partial bool) (normalizedUser, error) {
	var out normalizedUser
	var errs []string

	check := func(raw *string, clean func(string) string, valid func(string) bool, msg string) *string {
		if raw == nil {
			if !partial {
				errs = append(errs, msg)
			}
			return nil
		}
		v := clean(*raw)
		if !valid(v) {
			errs = append(errs, msg)
			return nil
		}
		return &v
	}

	out.firstName = check(in.FirstName, query.Sanitize, validName, msgFirstName)
	out.lastName = check(in.LastName, query.Sanitize, validName, msgLastName)
	out.email = check(in.Email, normalizeEmail, emailPattern.MatchString, msgEmail)
	out.gender = check(in.Gender, normalizeGender, validGender, msgGender)
	out.phone = check(in.Phone, query.Sanitize, validPhone, msgPhone)

	if len(errs) > 0 {
		return normalizedUser{}, &ValidationError{Errors: errs}
	}
	return out, nil
}

func validName(s string) bool {
	return utf8.RuneCountInString(s) >= 2
}

func normalizeEmail(s string) string {
	return strings.ToLower(query.Sanitize(s))
}

func normalizeGender(s string) string {
	g, _ := models.NormalizeGender(s)
	return g
}

func validGender(s string) bool {
	_, ok := models.NormalizeGender(s)
	return ok
}

func validPhone(s string) bool {
	return phonePattern.MatchString(s) && len(nonDigit.ReplaceAllString(s, "")) >= 10
}
