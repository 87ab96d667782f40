package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"leavehub/internal/domain/leave"
)

// WriteBalancePDF renders the org-wide ledger report as a PDF table.
func WriteBalancePDF(w io.Writer, year int, views []leave.BalanceView) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Leave Balances %d", year))
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	headers := []struct {
		label string
		width float64
	}{
		{"User", 46},
		{"Leave Type", 46},
		{"Allocated", 20},
		{"Carried", 20},
		{"Adjusted", 20},
		{"Used", 18},
		{"Balance", 20},
	}
	for _, h := range headers {
		pdf.CellFormat(h.width, 7, h.label, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, v := range views {
		pdf.CellFormat(46, 6, v.UserID, "1", 0, "", false, 0, "")
		pdf.CellFormat(46, 6, v.LeaveTypeID, "1", 0, "", false, 0, "")
		pdf.CellFormat(20, 6, v.Allocated.StringFixed(1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, v.CarriedOver.StringFixed(1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, v.Adjusted.StringFixed(1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(18, 6, v.Used.StringFixed(1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, v.Balance.StringFixed(1), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
