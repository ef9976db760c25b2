// Package export writes archived evaluations to spreadsheets.
package export

import (
	"io"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/roi-cli/internal/estimate"
	"github.com/sells-group/roi-cli/internal/model"
)

// SheetName is the name of the evaluations worksheet.
const SheetName = "Evaluations"

// Header is the first row of the evaluations worksheet.
var Header = []string{
	"ID",
	"Kind",
	"Created",
	"Requester",
	"Title",
	"Owner",
	"Revenue impact",
	"UX improvement",
	"Risk reduction",
	"Customer care",
	"Annual benefit",
	"Development cost",
	"Payback (months)",
	"Recommendation",
}

// Workbook builds an XLSX file with one row per evaluation.
func Workbook(evals []model.Evaluation) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, ev := range evals {
		row := sheet.AddRow()
		row.AddCell().SetString(ev.ID)
		row.AddCell().SetString(string(ev.Kind))
		row.AddCell().SetString(ev.CreatedAt.UTC().Format(time.RFC3339))
		row.AddCell().SetString(ev.Requester)
		row.AddCell().SetString(ev.Title())
		row.AddCell().SetString(ev.Fields.Get(model.FieldOwner))
		for _, crit := range model.Criteria {
			scoreCell(row.AddCell(), ev.Fields.Get(model.ScoreField(crit)))
		}
		row.AddCell().SetFloat(math.Round(ev.Estimation.AnnualBenefit))
		row.AddCell().SetFloat(math.Round(ev.Estimation.TotalCost))
		paybackCell(row.AddCell(), ev.Estimation.PaybackMonths)
		row.AddCell().SetString(ev.Estimation.Recommendation.Label())
	}
	return f, nil
}

// Write streams the evaluations workbook to w.
func Write(w io.Writer, evals []model.Evaluation) error {
	f, err := Workbook(evals)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write workbook")
}

// Save writes the evaluations workbook to path.
func Save(path string, evals []model.Evaluation) error {
	f, err := Workbook(evals)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// scoreCell leaves unscored criteria blank.
func scoreCell(cell *xlsx.Cell, raw string) {
	if raw == "" {
		cell.SetString("")
		return
	}
	cell.SetFloat(estimate.ParseNumber(raw))
}

func paybackCell(cell *xlsx.Cell, months float64) {
	if math.IsInf(months, 0) || math.IsNaN(months) || months <= 0 {
		cell.SetString(estimate.NoValue)
		return
	}
	cell.SetFloat(math.Round(months*10) / 10)
}
