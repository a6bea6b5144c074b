package utils

import (
	"strings"
)

// FirstMatch returns the first keyword contained in text
func FirstMatch(text string, keywords ...string) (string, bool) {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// ContainsFold reports whether text contains keyword, ignoring letter case
func ContainsFold(text, keyword string) bool {
	return strings.Contains(strings.ToUpper(text), strings.ToUpper(keyword))
}
