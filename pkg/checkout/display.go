package checkout

import "strings"

const maskedGroup = "••••"

// FormatCardNumber groups the digits of a card number in blocks of four.
func FormatCardNumber(input string) string {
	digits := Digits(input)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LastFour returns the final four digits, or all of them when fewer exist.
func LastFour(input string) string {
	digits := Digits(input)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// MaskCardNumber renders a card for display without exposing more than the last four digits.
func MaskCardNumber(input string) string {
	last := LastFour(input)
	if last == "" {
		return strings.Repeat(maskedGroup+" ", 3) + maskedGroup
	}
	return strings.Repeat(maskedGroup+" ", 3) + last
}
