package forecast

import "unicode/utf8"

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
