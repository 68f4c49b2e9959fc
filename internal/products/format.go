package products

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmountRange renders min/max amounts with thousands separators for
// admin UI display, e.g. "5,000 - 250,000".
func formatAmountRange(min, max int64) string {
	if min == 0 && max == 0 {
		return ""
	}
	return amountPrinter.Sprintf("%d - %d", min, max)
}
