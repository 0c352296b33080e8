package wine

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseLeadingInt reads an optionally signed run of leading digits, ignoring
// leading whitespace and anything after the digits: "2020-2025" yields 2020,
// " 14.5%" yields 14. It reports false when no digit is found.
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IntOr parses s like ParseLeadingInt and returns def when parsing fails or
// the value is zero. Zero counts as missing: a window end of "0" means no end.
func IntOr(s string, def int) int {
	n, ok := ParseLeadingInt(s)
	if !ok || n == 0 {
		return def
	}
	return n
}
