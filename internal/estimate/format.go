package estimate

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/roi-cli/internal/config"
	"github.com/sells-group/roi-cli/internal/model"
)

// NoValue is shown in place of a payback period that cannot be computed.
const NoValue = "—"

// Formatter renders figures with locale-specific digit grouping.
type Formatter struct {
	printer *message.Printer
	suffix  string
}

// NewFormatter creates a Formatter for a BCP 47 locale such as "ru" or
// "en-US". An unparsable locale falls back to Russian.
func NewFormatter(locale, currencySuffix string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Russian
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		suffix:  currencySuffix,
	}
}

// NewFormatterFromConfig creates a Formatter from the format configuration.
func NewFormatterFromConfig(cfg config.FormatConfig) *Formatter {
	return NewFormatter(cfg.Locale, cfg.CurrencySuffix)
}

// Amount renders a whole-unit amount with grouping and no suffix.
// Non-finite values render as 0.
func (f *Formatter) Amount(v float64) string {
	v = math.Round(Sanitize(v))
	if v == 0 {
		v = 0 // drop negative zero
	}
	return f.printer.Sprintf("%.0f", v)
}

// Currency renders an amount with grouping, no fraction digits and the
// currency suffix.
func (f *Formatter) Currency(v float64) string {
	if f.suffix == "" {
		return f.Amount(v)
	}
	return f.Amount(v) + " " + f.suffix
}

// Months renders a payback period with at most one fraction digit, or
// NoValue when it is not finite or not positive.
func (f *Formatter) Months(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return NoValue
	}
	r := math.Round(v*10) / 10
	if r == math.Trunc(r) {
		return f.printer.Sprintf("%.0f", r)
	}
	return f.printer.Sprintf("%.1f", r)
}

// Figures are the display strings of an Estimation.
type Figures struct {
	AnnualBenefit  string                `json:"annual_benefit"`
	TotalCost      string                `json:"total_cost"`
	PaybackMonths  string                `json:"payback_months"`
	Recommendation string                `json:"recommendation"`
	Category       string                `json:"category"`
	LineCosts      map[model.Role]string `json:"line_costs"`
}

// Figures renders every displayed output of est.
func (f *Formatter) Figures(est model.Estimation) Figures {
	lines := make(map[model.Role]string, len(est.Lines))
	for _, l := range est.Lines {
		lines[l.Role] = f.Amount(l.Cost)
	}
	return Figures{
		AnnualBenefit:  f.Currency(est.AnnualBenefit),
		TotalCost:      f.Currency(est.TotalCost),
		PaybackMonths:  f.Months(est.PaybackMonths),
		Recommendation: est.Recommendation.Label(),
		Category:       est.Recommendation.Category(),
		LineCosts:      lines,
	}
}
