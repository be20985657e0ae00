package api

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups digits the way the application form displays amounts.
var printer = message.NewPrinter(language.AmericanEnglish)

// maxPrintable is the largest magnitude printer can take as an int64.
var maxPrintable = decimal.NewFromInt(math.MaxInt64)

// formatAmount renders x rounded half-to-even to a whole number with
// thousands separators, prefixed with $ for money.
func formatAmount(x float64, money bool) string {
	d := decimal.NewFromFloat(x).RoundBank(0)
	var s string
	if d.Abs().LessThanOrEqual(maxPrintable) {
		s = printer.Sprintf("%d", d.IntPart())
	} else {
		s = groupDigits(d.String())
	}
	if money {
		return "$" + s
	}
	return s
}

// groupDigits inserts a comma every three digits of a whole number.
func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 1)
	b.WriteString(sign)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// formatPercent renders a probability as a percentage with two decimals.
func formatPercent(p float64) string {
	return decimal.NewFromFloat(p).Shift(2).StringFixed(2) + "%"
}

func suggestionMessage(label string, original, candidate float64, money bool) string {
	return fmt.Sprintf("Increasing %s from %s to %s could decrease your credit risk.",
		label, formatAmount(original, money), formatAmount(candidate, money))
}
