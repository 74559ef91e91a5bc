package checkout

import (
	"regexp"
	"strings"
)

const (
	MsgEmailInvalid  = "Please enter a valid email address"
	MsgPhoneInvalid  = "Please enter a valid phone number"
	MsgPostalInvalid = "Please enter a valid ZIP or postal code"

	minPhoneDigits = 10
	minPostalLen   = 3
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
	usPostalPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	caPostalPattern = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] \d[A-Za-z]\d$`)
)

func ValidateEmail(input string, report bool) FieldResult {
	return result(emailPattern.MatchString(input), report, MsgEmailInvalid)
}

// ValidatePhone allows digits, spaces and "+-()" and needs at least ten digits.
func ValidatePhone(input string, report bool) FieldResult {
	valid := phonePattern.MatchString(input) && len(Digits(input)) >= minPhoneDigits
	return result(valid, report, MsgPhoneInvalid)
}

// ValidatePostalCode checks US ZIP and Canadian postal shapes. Other countries only
// need a few characters.
func ValidatePostalCode(input, country string, report bool) FieldResult {
	var valid bool
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "", "US":
		valid = usPostalPattern.MatchString(input)
	case "CA":
		valid = caPostalPattern.MatchString(input)
	default:
		valid = len(input) >= minPostalLen
	}
	return result(valid, report, MsgPostalInvalid)
}
