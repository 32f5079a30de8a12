package report

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is printed for any missing value
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.English)

// currencySymbol maps an ISO code to its symbol. Symbols the PDF core fonts
// cannot encode fall back to the code followed by a space.
func currencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "$"
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " "
	}
	symbol := printer.Sprint(currency.NarrowSymbol(unit))
	if _, err := charmap.Windows1252.NewEncoder().String(symbol); err != nil || symbol == code {
		return code + " "
	}
	return symbol
}

func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// FormatPrice renders a price as symbol + two decimals with grouping, e.g. $1,234.50
func FormatPrice(v *float64, currencyCode string) string {
	if !valid(v) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(*v).Round(2)
	return currencySymbol(currencyCode) + printer.Sprintf("%.2f", d.InexactFloat64())
}

// FormatVolume renders a volume with thousands grouping, e.g. 52,164,500
func FormatVolume(v *float64) string {
	if !valid(v) {
		return NotAvailable
	}
	return printer.Sprintf("%d", decimal.NewFromFloat(*v).Round(0).IntPart())
}

var compactUnits = []struct {
	suffix string
	size   decimal.Decimal
}{
	{"T", decimal.New(1, 12)},
	{"B", decimal.New(1, 9)},
	{"M", decimal.New(1, 6)},
	{"K", decimal.New(1, 3)},
}

// FormatCompactCurrency renders a large amount with one fraction digit and a
// magnitude suffix, e.g. $2.9T or $3B
func FormatCompactCurrency(v *float64, currencyCode string) string {
	if !valid(v) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(*v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	symbol := currencySymbol(currencyCode)
	for _, unit := range compactUnits {
		if d.GreaterThanOrEqual(unit.size) {
			return sign + symbol + d.Div(unit.size).Round(1).String() + unit.suffix
		}
	}
	return sign + symbol + d.Round(1).String()
}

// FormatPercent renders a [0,1] score as a percentage with one decimal, e.g. 78.5%
func FormatPercent(score float64) string {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return NotAvailable
	}
	return decimal.NewFromFloat(score).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// FormatMetric renders a free-form numeric metric with up to four decimals
func FormatMetric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(v)
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
	}
	return d.Round(4).String()
}

// MetricLabel turns an upstream key such as "sharpe_ratio" into "Sharpe Ratio"
func MetricLabel(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		if strings.ToUpper(w) == w {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
