package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxReceiptLength is the processor's limit on the receipt field
const MaxReceiptLength = 40

// currencies whose minor unit is not 1/100 of the major unit
var minorUnitExponent = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// ToMinorUnits converts a major-unit price to the processor's integer minor
// unit, rounding half away from zero at the currency's precision.
func ToMinorUnits(price decimal.Decimal, currency string) (int64, error) {
	if price.IsNegative() {
		return 0, fmt.Errorf("price must not be negative: %s", price.String())
	}

	minor := price.Shift(exponent(currency)).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("price %s overflows minor units", price.String())
	}
	return minor.IntPart(), nil
}

// FormatMinorUnits renders an integer minor-unit amount in major units,
// e.g. 49900 INR as "499.00".
func FormatMinorUnits(amount int64, currency string) string {
	exp := exponent(currency)
	return decimal.New(amount, -exp).StringFixed(exp)
}

func exponent(currency string) int32 {
	if exp, ok := minorUnitExponent[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// BuildReceipt derives a traceable receipt id for a checkout, truncated to
// the processor's length limit.
func BuildReceipt(courseID, userID uint, at time.Time) string {
	receipt := "rcpt_c" + strconv.FormatUint(uint64(courseID), 10) +
		"_u" + strconv.FormatUint(uint64(userID), 10) +
		"_" + strconv.FormatInt(at.UnixMilli(), 10)
	if len(receipt) > MaxReceiptLength {
		receipt = receipt[:MaxReceiptLength]
	}
	return receipt
}
