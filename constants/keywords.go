package constants

import "strings"

// IgnoreKeywords marks receipt lines that carry totals, payment info, or
// loyalty noise rather than purchasable items. Matched case-insensitively as
// substrings against the whole line.
var IgnoreKeywords = []string{
	"subtotal",
	"sub-total",
	"sub total",
	"tax",
	"total",
	"balance",
	"change",
	"cash",
	"credit",
	"debit",
	"visa",
	"mastercard",
	"amex",
	"interac",
	"payment",
	"tender",
	"tip",
	"gratuity",
	"loyalty",
	"points",
	"rewards",
	"coupon",
	"discount",
	"gst",
	"pst",
	"hst",
	"qst",
}

// ContainsIgnoreKeyword reports whether line should be dropped before item
// parsing.
func ContainsIgnoreKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range IgnoreKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
