package checkout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/merch-checkout/pkg/enums"
)

const (
	minCardDigits = 13
	maxCardDigits = 19
)

const (
	MsgCardNumberRequired = "Card number is required"
	MsgCardNumberLength   = "Input must be 13-19 digits"
	MsgCardNumberInvalid  = "Invalid card number"
	MsgExpiryShape        = "Enter a valid expiry date"
	MsgExpiryPast         = "Card has expired or invalid date"
	MsgHolderName         = "Enter a valid cardholder name"
)

var (
	expiryPattern     = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	digitsOnlyPattern = regexp.MustCompile(`^\d+$`)
	holderPattern     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// FieldResult is the outcome of validating a single input field. Message is only
// populated when the caller asked for errors to be reported.
type FieldResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func result(valid bool, report bool, msg string) FieldResult {
	if valid || !report {
		return FieldResult{Valid: valid}
	}
	return FieldResult{Valid: false, Message: msg}
}

// Digits strips every non-digit character from the input.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Luhn reports whether digits passes the mod-10 checksum. Empty or non-digit input fails.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateCardNumber accepts 13-19 digits (separators ignored) that pass Luhn.
func ValidateCardNumber(input string, report bool) FieldResult {
	clean := Digits(input)
	switch {
	case clean == "":
		return result(false, report, MsgCardNumberRequired)
	case len(clean) < minCardDigits || len(clean) > maxCardDigits:
		return result(false, report, MsgCardNumberLength)
	case !Luhn(clean):
		return result(false, report, MsgCardNumberInvalid)
	}
	return FieldResult{Valid: true}
}

// ParseExpiry splits an MM/YY value into month and four digit year.
func ParseExpiry(input string) (month, year int, ok bool) {
	m := expiryPattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return 0, 0, false
	}
	month, _ = strconv.Atoi(m[1])
	yy, _ := strconv.Atoi(m[2])
	return month, 2000 + yy, true
}

// ValidateExpiry accepts MM/YY dates whose month is not before now's month.
func ValidateExpiry(input string, now time.Time, report bool) FieldResult {
	month, year, ok := ParseExpiry(input)
	if !ok {
		return result(false, report, MsgExpiryShape)
	}
	curYear, curMonth := now.Year(), int(now.Month())
	valid := month >= 1 && month <= 12 &&
		(year > curYear || (year == curYear && month >= curMonth))
	return result(valid, report, MsgExpiryPast)
}

// ValidateCVC expects four digits for amex and three for everything else.
func ValidateCVC(input string, brand enums.CardBrand, report bool) FieldResult {
	want := brand.CVCLength()
	valid := len(input) == want && digitsOnlyPattern.MatchString(input)
	return result(valid, report, fmt.Sprintf("Enter a valid %d-digit CVC", want))
}

func ValidateHolderName(input string, report bool) FieldResult {
	valid := len(strings.TrimSpace(input)) >= 2 && holderPattern.MatchString(input)
	return result(valid, report, MsgHolderName)
}
