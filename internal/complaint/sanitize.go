package complaint

import "strings"

// SanitizePhone keeps digits and '+' only, then drops every '+' that is not
// the first character of the result.
//
//	SanitizePhone("+62-812a345") == "+62812345"
//	SanitizePhone("0812+3+4")    == "081234"
func SanitizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
