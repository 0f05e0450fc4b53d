package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal string such as "85.75" to Money with
// half-up rounding on the third decimal place. Both dot and comma decimal
// separators are accepted. Signs are rejected: amounts are magnitudes and
// the cash-flow direction comes from the transaction type.
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return Money{}, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxWhole = (1<<63 - 1) / 100
	if whole > maxWhole {
		return Money{}, ErrInvalidAmount
	}

	var cents int64
	switch {
	case len(fracPart) >= 2:
		cents = int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	case len(fracPart) == 1:
		cents = int64(fracPart[0]-'0') * 10
	}

	m := Money{Cents: whole*100 + cents}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// String formats the amount with two decimals, e.g. "85.75". Negative
// amounts (balances) keep their sign.
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
