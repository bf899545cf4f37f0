package inquiry

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone brings Bulgarian numbers to +359 form and keeps other
// international numbers as digits with a leading plus.
func NormalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(cleaned, "359") && len(cleaned) == 12:
		return "+" + cleaned
	case strings.HasPrefix(cleaned, "00359") && len(cleaned) == 14:
		return "+" + cleaned[2:]
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		return "+359" + cleaned[1:]
	case strings.HasPrefix(strings.TrimSpace(phone), "+"):
		return "+" + cleaned
	}
	return cleaned
}

func ValidPhone(phone string) bool {
	phone = NormalizePhone(phone)

	badNumbers := map[string]bool{
		"+3590000000000": true,
		"+359000000000":  true,
		"+359123456789":  true,
	}
	if badNumbers[phone] || !strings.HasPrefix(phone, "+") {
		return false
	}

	digits := len(phone) - 1
	return digits >= 8 && digits <= 15
}

// FormatPhone prints +359 mobile numbers as +359 87 914 6134.
func FormatPhone(phone string) string {
	if strings.HasPrefix(phone, "+359") && len(phone) == 13 {
		return fmt.Sprintf("%s %s %s %s", phone[:4], phone[4:6], phone[6:9], phone[9:])
	}
	return phone
}
