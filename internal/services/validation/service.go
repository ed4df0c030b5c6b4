package validation

import (
	"regexp"
	"unicode/utf8"

	"github.com/mcoot/greenlight/internal/model"
)

// Field rules. Lengths count runes, the characters a player typed, rather than
// UTF-16 code units. The two only differ outside the Basic Multilingual Plane:
// "Ann😀😀" is five characters here but seven units to a JavaScript
// String.length check, so it fails the name rule even though a browser-side
// check would pass it. The server result is the one that counts.
const (
	MinNameLength   = 6
	MaxMobileLength = 10
)

// Messages shown for failing fields
const (
	NameMessage   = "Name must be longer than 5 characters."
	EmailMessage  = "Invalid email format."
	MobileMessage = "Mobile number must be 10 digits or less."
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,4}$`)

// ValidateName reports whether the name is longer than 5 characters
func ValidateName(s string) bool {
	return utf8.RuneCountInString(s) >= MinNameLength
}

// ValidateEmail reports whether s looks like local@domain.tld with a 2-4 letter tld
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateMobile only enforces the maximum length; digits are not checked.
func ValidateMobile(s string) bool {
	return utf8.RuneCountInString(s) <= MaxMobileLength
}

// ValidateRegistration checks every field and returns one message per failing field.
// All three fields are required. A nil result means the player is valid.
func ValidateRegistration(p model.Player) model.FieldErrors {
	errs := model.FieldErrors{}

	switch {
	case p.Name == "":
		errs[model.FieldName] = "Name is required."
	case !ValidateName(p.Name):
		errs[model.FieldName] = NameMessage
	}

	switch {
	case p.Email == "":
		errs[model.FieldEmail] = "Email is required."
	case !ValidateEmail(p.Email):
		errs[model.FieldEmail] = EmailMessage
	}

	switch {
	case p.Mobile == "":
		errs[model.FieldMobile] = "Mobile number is required."
	case !ValidateMobile(p.Mobile):
		errs[model.FieldMobile] = MobileMessage
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
