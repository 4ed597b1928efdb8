package projector

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/nixlim/chat-top/internal/stats"
)

// Formatter renders metric values for display.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a Formatter for the given BCP 47 locale tag.
// An unparseable tag falls back to Russian, the language of the metric names.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Russian
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Number formats v with locale grouping and zero to two fraction digits.
// Halves round away from zero.
func (f *Formatter) Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return f.printer.Sprint(v)
	}
	rounded := math.Round(v*100) / 100
	return f.printer.Sprint(number.Decimal(rounded,
		number.MinFractionDigits(0),
		number.MaxFractionDigits(2),
	))
}

// Value formats numbers with Number and everything else with its literal form.
func (f *Formatter) Value(v stats.Value) string {
	if v.IsNumber() {
		return f.Number(v.Number)
	}
	return v.Literal()
}
