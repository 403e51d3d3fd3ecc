package utils

import (
	"regexp"
	"strings"
)

var nonPhoneRe = regexp.MustCompile(`[^\d+]`)

// NormalizePhoneNumber strips formatting from a phone number.
// Rules:
// - keep a leading '+' if present
// - remove spaces, punctuation and any '+' that is not leading
// - for US/CA records, 10-digit numbers get +1 and 11-digit numbers starting with 1 get +
// - anything else keeps its digits without a guessed country code
func NormalizePhoneNumber(phone, country string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}

	clean := nonPhoneRe.ReplaceAllString(trimmed, "")
	plus := strings.HasPrefix(clean, "+")
	digits := strings.ReplaceAll(clean, "+", "")
	if digits == "" {
		return ""
	}
	if plus {
		return "+" + digits
	}

	switch country {
	case "US", "CA":
		if len(digits) == 10 {
			return "+1" + digits
		}
		if len(digits) == 11 && strings.HasPrefix(digits, "1") {
			return "+" + digits
		}
	}
	return digits
}

// ExtractPhoneDigits returns just the digits in a phone number string.
func ExtractPhoneDigits(phone string) string {
	return regexp.MustCompile(`\D`).ReplaceAllString(phone, "")
}
