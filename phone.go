package clarix

import "strings"

// FormatPhone renders a Brazilian phone number as "(DD) DDDDD-DDDD" for
// 11-digit mobile numbers or "(DD) DDDD-DDDD" for 10-digit landlines. Any
// other digit count returns the input unchanged.
func FormatPhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return raw
	}
}
