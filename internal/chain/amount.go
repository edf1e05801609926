package chain

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// ParseDecimalAmount parses a display-unit amount into base units.
// "1.5" with 9 decimals returns 1500000000. Amounts with more fractional
// digits than the chain supports are rejected rather than truncated.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, walleterr.ErrAmountRequired
	}

	invalid := walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{"amount": amount})

	if strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") || amount == "." {
		return nil, invalid
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, invalid
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	for _, c := range intPart + decPart {
		if c < '0' || c > '9' {
			return nil, invalid
		}
	}

	if len(decPart) > decimalPlaces {
		return nil, walleterr.WithDetails(invalid, map[string]string{
			"max_decimals": strconv.Itoa(decimalPlaces),
		})
	}

	if intPart == "" {
		intPart = "0"
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, invalid
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalPlaces)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart != "" {
		decPart += strings.Repeat("0", decimalPlaces-len(decPart))
		decVal, ok := new(big.Int).SetString(decPart, 10)
		if !ok {
			return nil, invalid
		}
		result.Add(result, decVal)
	}

	return result, nil
}

// ParsePositiveAmount is ParseDecimalAmount that also rejects zero.
func ParsePositiveAmount(amount string, decimalPlaces int) (*big.Int, error) {
	v, err := ParseDecimalAmount(amount, decimalPlaces)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{
			"amount": amount,
			"reason": "must be greater than zero",
		})
	}
	return v, nil
}

// FormatDecimalAmount converts base units to a display string with trailing
// zeros removed. 1500000000 with 9 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, int32(-decimalPlaces)).String() //nolint:gosec // decimals are small constants
}

// FormatFixed formats base units with exactly places fractional digits,
// rounding half away from zero when the chain precision is higher.
func FormatFixed(amount *big.Int, decimalPlaces, places int) string {
	if amount == nil {
		amount = new(big.Int)
	}
	return decimal.NewFromBigInt(amount, int32(-decimalPlaces)).StringFixed(int32(places)) //nolint:gosec // decimals are small constants
}

// FormatUint formats a uint64 base-unit amount.
func FormatUint(amount uint64, decimalPlaces int) string {
	return FormatDecimalAmount(new(big.Int).SetUint64(amount), decimalPlaces)
}
