package billing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("amount must be a number with at most two decimals")

// FormatAmount renders paise as rupees with two decimals, e.g. 150050 -> "1500.50".
func FormatAmount(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s%d.%02d", sign, paise/100, paise%100)
}

// ParseAmount reads a rupee amount such as "1500", "1500.5" or "1,500.50"
// into paise.
// PRE: s is a non-negative decimal
// POST: Returns paise or ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2 || strings.Trim(frac, "0123456789") != "") {
		return 0, ErrInvalidAmount
	}
	rupees, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || rupees > (math.MaxInt64-99)/100 {
		return 0, ErrInvalidAmount
	}
	var paise int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		paise, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
	}
	return rupees*100 + paise, nil
}
