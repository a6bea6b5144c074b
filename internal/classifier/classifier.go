package classifier

import (
	"strings"

	"sms-bridge/internal/utils"
)

// Group identifies which keyword family matched a message
type Group string

// Keyword groups
const (
	GroupBank       Group = "bank"
	GroupPaymentApp Group = "payment_app"
	GroupKeyword    Group = "keyword"
)

type keywordGroup struct {
	group    Group
	keywords []string
	upper    []string
}

// groups are checked in order: banks, payment apps, then transaction keywords
var groups = []keywordGroup{
	newGroup(GroupBank, "HDFC", "SBI", "ICICI", "Axis", "Kotak", "YES"),
	newGroup(GroupPaymentApp, "Paytm", "PhonePe", "Google Pay", "UPI"),
	newGroup(GroupKeyword, "Debit", "Credit", "Transaction", "Payment", "ATM", "Balance"),
}

func newGroup(group Group, keywords ...string) keywordGroup {
	upper := make([]string, len(keywords))
	for i, k := range keywords {
		upper[i] = strings.ToUpper(k)
	}
	return keywordGroup{group: group, keywords: keywords, upper: upper}
}

// IsBankSMS reports whether body looks like a bank or payment message
func IsBankSMS(body string) bool {
	_, _, ok := Match(body)
	return ok
}

// Match returns the first keyword found in body, compared case-insensitively
func Match(body string) (string, Group, bool) {
	text := strings.ToUpper(body)
	for _, g := range groups {
		hit, ok := utils.FirstMatch(text, g.upper...)
		if !ok {
			continue
		}
		for i, u := range g.upper {
			if u == hit {
				return g.keywords[i], g.group, true
			}
		}
	}
	return "", "", false
}

// Keywords returns the configured keywords in match order
func Keywords() []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.keywords...)
	}
	return out
}
