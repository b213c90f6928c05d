package contacts

import "regexp"

const (
	msgFullNameRequired = "Full Name is required"
	msgInvalidPhone     = "Invalid phone number"
	msgInvalidEmail     = "Invalid email address"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9 ]+$`)
	// exactly one @ with something on both sides
	emailPattern = regexp.MustCompile(`^[^@]+@[^@]+$`)
)

// Validate checks the submission and returns the per-field errors.
// The submission itself is never modified: no trimming, no case folding.
func (n NewContact) Validate() FieldErrors {
	var errs FieldErrors
	if n.FullName == "" {
		errs.FullName = msgFullNameRequired
	}
	if n.Phone != nil && *n.Phone != "" && !phonePattern.MatchString(*n.Phone) {
		errs.Phone = msgInvalidPhone
	}
	if n.Email != nil && *n.Email != "" && !emailPattern.MatchString(*n.Email) {
		errs.Email = msgInvalidEmail
	}
	return errs
}
