package numeric

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hanc1208/iu-exchange-frontend/internal/model"
)

// millionAbbreviationThreshold is the magnitude at which FormatNumber
// abbreviates with the "M" suffix. A single SI-style step is supported.
var millionAbbreviationThreshold = decimal.NewFromInt(1_000_000)

// FormatOptions controls optional behavior of FormatNumber.
type FormatOptions struct {
	// Fixed pads the fraction with trailing zeros to exactly the requested
	// number of decimal places. Without it, trailing zeros are trimmed.
	Fixed bool

	// Short abbreviates values of magnitude >= 10^6 by dividing by 10^6 and
	// appending an "M" suffix.
	Short bool

	// Currency, when non-empty, is appended after the formatted value
	// separated by a space.
	Currency string
}

// FormatNumber renders a decimal for display.
//
// The value is truncated toward zero to decimalPlaces (never rounded), the
// integer part is grouped with thousands separators, and the options add
// fixed-width fractions, an "M" magnitude suffix, or a currency code.
func FormatNumber(value decimal.Decimal, decimalPlaces int32, opts FormatOptions) string {
	postfix := ""
	if opts.Short && value.Abs().GreaterThanOrEqual(millionAbbreviationThreshold) {
		value = value.Div(millionAbbreviationThreshold)
		postfix = "M"
	}

	value = value.Truncate(decimalPlaces)

	var rendered string
	if opts.Fixed {
		rendered = value.StringFixed(decimalPlaces)
	} else {
		rendered = value.String()
	}

	formatted := groupThousands(rendered) + postfix
	if opts.Currency != "" {
		formatted += " " + opts.Currency
	}
	return formatted
}

// FormatPrice renders a price using the display precision implied by the
// market's tick size at that price level: the tick's decimal-place count
// bounds the fraction, trailing zeros are trimmed.
//
// The error propagates ErrNoQuotation and nothing else.
func FormatPrice(market model.Market, price decimal.Decimal) (string, error) {
	tick, err := TickSize(market, price)
	if err != nil {
		return "", err
	}
	return FormatNumber(price, tickDecimalPlaces(tick), FormatOptions{}), nil
}

// FormatPriceWithPair renders a price followed by its market pair, e.g.
// "50,000,000 BTC/KRW".
func FormatPriceWithPair(market model.Market, price decimal.Decimal) (string, error) {
	formatted, err := FormatPrice(market, price)
	if err != nil {
		return "", err
	}
	return formatted + " " + market.Pair(), nil
}

// groupThousands inserts comma separators into the integer part of a plain
// decimal string. The fraction, if any, is left untouched.
func groupThousands(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}

	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	if hasFrac {
		return sign + intPart + "." + fracPart
	}
	return sign + intPart
}
