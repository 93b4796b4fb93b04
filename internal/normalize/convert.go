package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Converter turns one text-encoded upstream value into its output value.
// A nil value with a nil error means "absent" and serializes as null.
type Converter func(raw string) (any, error)

// Fixed-point scales.
const (
	PriceScale = 4
	RateScale  = 6
)

var errTimestampTooShort = errors.New("timestamp shorter than 14 characters")

// Identity returns the value unchanged.
func Identity(raw string) (any, error) {
	return raw, nil
}

// FixedPointPrice returns round(raw * 10^4).
func FixedPointPrice(raw string) (any, error) {
	return scale(raw, PriceScale)
}

// FixedPointRate returns round(raw * 10^6), or absent when raw is empty.
func FixedPointRate(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	return scale(raw, RateScale)
}

func scale(raw string, exp int32) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return d.Shift(exp).Round(0).IntPart(), nil
}

// ParseInt parses a plain integer such as a share volume.
func ParseInt(raw string) (any, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

// TruncateToInt parses the integer part before the first '.', or returns
// absent when raw is empty.
func TruncateToInt(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	whole, _, _ := strings.Cut(strings.TrimSpace(raw), ".")
	if whole == "-" || whole == "+" {
		return int64(0), nil
	}
	return strconv.ParseInt(whole, 10, 64)
}

// ExpandTimestamp rewrites a compact YYYYMMDDHHmmSSfff stamp as
// YYYY-MM-DDTHH:mm:SS.fffZ. A stamp without the millisecond part gets ".000".
func ExpandTimestamp(raw string) (any, error) {
	if len(raw) < 14 {
		return nil, errTimestampTooShort
	}
	frac := raw[14:]
	if frac == "" {
		frac = "000"
	}
	return fmt.Sprintf("%s-%s-%sT%s:%s:%s.%sZ",
		raw[0:4], raw[4:6], raw[6:8], raw[8:10], raw[10:12], raw[12:14], frac), nil
}

// Adjustment modes as spoken by callers.
const (
	AdjustPost = "post"
	AdjustPre  = "pre"
	AdjustNone = "none"
)

// RehabilitationCode encodes a caller adjustment mode into the upstream
// adjustflag code. Unknown modes fall back to unadjusted.
func RehabilitationCode(mode string) string {
	switch mode {
	case AdjustPost:
		return "1"
	case AdjustPre:
		return "2"
	default:
		return "3"
	}
}

// RehabilitationLabel decodes an upstream adjustflag code back into the
// caller-facing mode, the inverse of RehabilitationCode.
func RehabilitationLabel(code string) (any, error) {
	switch code {
	case "1":
		return AdjustPost, nil
	case "2":
		return AdjustPre, nil
	case "3":
		return AdjustNone, nil
	default:
		return nil, fmt.Errorf("unknown adjustflag code %q", code)
	}
}

// TradeStatusFlag reports stopped=true when the upstream trade status is "0".
func TradeStatusFlag(raw string) (any, error) {
	return raw == "0", nil
}

// SpecialTreatmentFlag reports true when the upstream ST flag is "1".
func SpecialTreatmentFlag(raw string) (any, error) {
	return raw == "1", nil
}

// TradingDayFlag reports true when the calendar marks the date as a trading day.
func TradingDayFlag(raw string) (any, error) {
	return raw == "1", nil
}

// StockTypeLabel maps the upstream security type code to a label.
func StockTypeLabel(raw string) (any, error) {
	switch raw {
	case "1":
		return "stock", nil
	case "2":
		return "index", nil
	default:
		return "other", nil
	}
}
