package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// FieldType is the declared syntactic type of an upload column.
type FieldType string

const (
	FieldString          FieldType = "string"
	FieldNumeric         FieldType = "numeric"
	FieldPercentage      FieldType = "percentage"
	FieldTrendPercentage FieldType = "trend_percentage" // percentage that may be negative
	FieldDate            FieldType = "date"
	FieldCopyLength      FieldType = "copy_length" // e.g. 30" or 20" 10"
)

var (
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDate   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dashDate    = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	copyLengths = regexp.MustCompile(`^\d+\s*(?:"|”|'')(?:\s*[,+/&]?\s*\d+\s*(?:"|”|''))*$`)

	plainNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
	thousands   = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "'", "")
)

// IsValid reports whether raw is acceptable for the field type. Blank input
// is always valid; required-ness is checked separately.
func IsValid(ft FieldType, raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return true
	}
	switch ft {
	case FieldNumeric:
		_, ok := ParseNumber(v)
		return ok
	case FieldPercentage:
		_, ok := ParsePercentage(v, false)
		return ok
	case FieldTrendPercentage:
		_, ok := ParsePercentage(v, true)
		return ok
	case FieldDate:
		_, ok := ParseDate(v)
		return ok
	case FieldCopyLength:
		return copyLengths.MatchString(v)
	case FieldString:
		if _, numeric := ParseNumber(v); numeric {
			return false
		}
		return strings.IndexFunc(v, unicode.IsLetter) >= 0
	default:
		return true
	}
}

// InvalidMessage is the issue text for a value rejected by IsValid.
func InvalidMessage(column string, ft FieldType) string {
	switch ft {
	case FieldNumeric:
		return fmt.Sprintf("%s must be a number", column)
	case FieldPercentage:
		return fmt.Sprintf("%s must be a percentage (e.g. 45%% or 0.45)", column)
	case FieldTrendPercentage:
		return fmt.Sprintf("%s must be a percentage between -100%% and 100%%", column)
	case FieldDate:
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD, DD/MM/YYYY or DD-MM-YYYY format", column)
	case FieldCopyLength:
		return fmt.Sprintf(`%s must list copy lengths in seconds, e.g. 30" or 20" 10"`, column)
	default:
		return fmt.Sprintf("%s must contain text, not only numbers", column)
	}
}

// ParseNumber parses a numeric cell, ignoring thousands separators. Only
// finite decimal literals are accepted; NaN, Inf and hex floats are not.
func ParseNumber(raw string) (float64, bool) {
	v := thousands.Replace(strings.TrimSpace(raw))
	if !plainNumber.MatchString(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParsePercentage parses "NN%" or a decimal fraction and returns the
// fraction (45% → 0.45). Values outside 0..1 (or -1..1 when allowNegative)
// are rejected.
func ParsePercentage(raw string, allowNegative bool) (float64, bool) {
	v := strings.TrimSpace(raw)
	var f float64
	if strings.HasSuffix(v, "%") {
		n, ok := ParseNumber(strings.TrimSuffix(v, "%"))
		if !ok {
			return 0, false
		}
		f = n / 100
	} else {
		n, ok := ParseNumber(v)
		if !ok {
			return 0, false
		}
		f = n
	}
	lo := 0.0
	if allowNegative {
		lo = -1
	}
	if f < lo || f > 1 {
		return 0, false
	}
	return f, true
}

// ParseDate accepts YYYY-MM-DD, DD/MM/YYYY and DD-MM-YYYY with one or two
// digit day and month. The format is matched before any parsing, and
// impossible dates such as 31/02/2025 are rejected.
func ParseDate(raw string) (time.Time, bool) {
	v := strings.TrimSpace(raw)
	var y, m, d string
	switch {
	case isoDate.MatchString(v):
		p := isoDate.FindStringSubmatch(v)
		y, m, d = p[1], p[2], p[3]
	case slashDate.MatchString(v):
		p := slashDate.FindStringSubmatch(v)
		d, m, y = p[1], p[2], p[3]
	case dashDate.MatchString(v):
		p := dashDate.FindStringSubmatch(v)
		d, m, y = p[1], p[2], p[3]
	default:
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDate returns the YYYY-MM-DD form used in natural keys.
func NormalizeDate(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
