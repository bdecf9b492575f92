package binding

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldFormat selects how a numeric value is rendered. Other kinds ignore it.
type FieldFormat string

const (
	FormatNumber   FieldFormat = "number"
	FormatCurrency FieldFormat = "currency"
	FormatPercent  FieldFormat = "percent"
)

const (
	// Placeholder is rendered for absent and null values.
	Placeholder    = "-"
	CurrencySymbol = "$"

	displayPlaces = 2
	listSeparator = ", "
	pairSeparator = "\n"
)

// Valid reports whether f is a known format. The empty format is valid and
// renders like FormatNumber.
func (f FieldFormat) Valid() bool {
	switch f {
	case "", FormatNumber, FormatCurrency, FormatPercent:
		return true
	}
	return false
}

// Format renders v for display. Percent values are taken as already being a
// percentage: 12.5 renders as "12.50%".
func Format(v Value, format FieldFormat) string {
	switch v.kind {
	case KindAbsent, KindNull:
		return Placeholder
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num, format)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = Text(item)
		}
		return strings.Join(parts, listSeparator)
	case KindObject:
		pairs := make([]string, 0, len(v.obj.keys))
		for _, k := range v.obj.keys {
			pairs = append(pairs, k+": "+memberText(v.obj.vals[k]))
		}
		return strings.Join(pairs, pairSeparator)
	}
	return Placeholder
}

// Text is the plain rendering used for list elements and table cells:
// absent and null are empty, numbers keep their natural precision and
// nested values are compact JSON.
func Text(v Value) string {
	switch v.kind {
	case KindAbsent, KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	case KindNumber:
		return plainNumber(v.num)
	}
	return v.JSON()
}

func memberText(v Value) string {
	if v.kind == KindArray || v.kind == KindObject {
		return v.JSON()
	}
	return Format(v, "")
}

func formatNumber(f float64, format FieldFormat) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return plainNumber(f)
	}
	d := decimal.NewFromFloat(f).Round(displayPlaces)
	switch format {
	case FormatCurrency:
		if d.IsNegative() {
			return "-" + CurrencySymbol + d.Abs().StringFixed(displayPlaces)
		}
		return CurrencySymbol + d.StringFixed(displayPlaces)
	case FormatPercent:
		return d.StringFixed(displayPlaces) + "%"
	default:
		return d.StringFixed(displayPlaces)
	}
}
