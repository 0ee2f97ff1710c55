package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Cost line labels in breakdown order. Row layout in the audit sheet follows
// this slice, so formula ranges are derived from its length.
var auditLineLabels = []string{
	"Hardware", "Structure", "Install", "Labor", "Power", "Shipping",
	"Project Management", "General Conditions", "Travel", "Submittals",
	"Engineering", "Permits", "CMS", "Demolition",
}

func auditLineValues(b CostBreakdown) []float64 {
	return []float64{
		b.Hardware, b.Structure, b.Install, b.Labor, b.Power, b.Shipping,
		b.PM, b.GeneralConditions, b.Travel, b.Submittals,
		b.Engineering, b.Permits, b.CMS, b.Demolition,
	}
}

// GenerateAuditWorkbook renders an internal audit as a reviewable workbook:
// one column per display, cost lines as editable values, and the pricing
// cascade (total cost → margin divisor → bond → regional tax → final total →
// sales tax) as live Excel formulas. A reviewer who edits a cost or margin
// cell sees the same cascade the engine computes natively.
func GenerateAuditWorkbook(title string, result ProposalResult, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	r := opts.rates()
	regional := RegionalTaxApplies(opts.ProjectAddress, opts.Venue)
	screens := result.InternalAudit.PerScreen

	sheet := "Audit"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// Column A holds labels; one column per display; the final column sums.
	lastColIdx := 2 + len(screens) // 1-based index of the totals column
	lastCol, err := excelize.ColumnNumberToName(lastColIdx)
	if err != nil {
		return nil, fmt.Errorf("totals column name: %w", err)
	}

	if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
		return nil, fmt.Errorf("set col width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", lastCol, 16); err != nil {
		return nil, fmt.Errorf("set col width: %w", err)
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	usdFmt := "$#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &usdFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	derivedStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &usdFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create derived style: %w", err)
	}

	pctFmt := "0.0%"
	pctStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &pctFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create percent style: %w", err)
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create label style: %w", err)
	}

	// ── Title and header rows ───────────────────────────────────────────

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle)

	const headerRow = 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", headerRow), "Line Item")
	for i, s := range screens {
		col, err := excelize.ColumnNumberToName(2 + i)
		if err != nil {
			return nil, fmt.Errorf("screen column name: %w", err)
		}
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, headerRow), sanitizeExcelCell(s.Name))
	}
	f.SetCellValue(sheet, fmt.Sprintf("%s%d", lastCol, headerRow), "Project Total")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle)

	// ── Cost lines (editable values) ────────────────────────────────────

	firstLineRow := headerRow + 1
	lastLineRow := firstLineRow + len(auditLineLabels) - 1
	for i, label := range auditLineLabels {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", firstLineRow+i), label)
	}
	for si, s := range screens {
		col, _ := excelize.ColumnNumberToName(2 + si)
		for li, v := range auditLineValues(s.Breakdown) {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, firstLineRow+li), v)
		}
	}

	// Per-line project totals sum across the display columns.
	if len(screens) > 0 {
		firstScreenCol, _ := excelize.ColumnNumberToName(2)
		lastScreenCol, _ := excelize.ColumnNumberToName(1 + len(screens))
		for li := range auditLineLabels {
			row := firstLineRow + li
			formula := fmt.Sprintf("SUM(%s%d:%s%d)", firstScreenCol, row, lastScreenCol, row)
			if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", lastCol, row), formula); err != nil {
				return nil, fmt.Errorf("line total formula: %w", err)
			}
		}
	}

	// ── Pricing cascade (live formulas) ─────────────────────────────────

	totalRow := lastLineRow + 1
	marginRow := totalRow + 1
	sellRow := marginRow + 1
	bondRow := sellRow + 1
	regionalRow := bondRow + 1
	finalRow := regionalRow + 1

	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total Cost")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", marginRow), "Margin %")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", sellRow), "Sell Price")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", bondRow), fmt.Sprintf("Bond (%.2f%%)", r.BondRate*100))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", regionalRow), "Regional Tax")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", finalRow), "Final Client Total")

	for ci := 0; ci < len(screens); ci++ {
		col, err := excelize.ColumnNumberToName(2 + ci)
		if err != nil {
			return nil, fmt.Errorf("cascade column name: %w", err)
		}

		// Margin is an editable input cell.
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, marginRow), screens[ci].DesiredMargin)

		regionalFormula := "0"
		if regional {
			regionalFormula = fmt.Sprintf("ROUND((%s%d+%s%d)*%g,2)", col, sellRow, col, bondRow, r.RegionalTaxRate)
		}
		cascade := []struct {
			row     int
			formula string
		}{
			{totalRow, fmt.Sprintf("SUM(%s%d:%s%d)", col, firstLineRow, col, lastLineRow)},
			{sellRow, fmt.Sprintf("ROUND(%s%d/(1-%s%d),2)", col, totalRow, col, marginRow)},
			{bondRow, fmt.Sprintf("ROUND(%s%d*%g,2)", col, sellRow, r.BondRate)},
			{regionalRow, regionalFormula},
			{finalRow, fmt.Sprintf("%s%d+%s%d+%s%d", col, sellRow, col, bondRow, col, regionalRow)},
		}
		for _, c := range cascade {
			if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", col, c.row), c.formula); err != nil {
				return nil, fmt.Errorf("cascade formula row %d: %w", c.row, err)
			}
		}
	}

	// The project column sums the display columns row-wise, so edits in any
	// display column flow into the project totals too.
	if len(screens) > 0 {
		firstScreenCol, _ := excelize.ColumnNumberToName(2)
		lastScreenCol, _ := excelize.ColumnNumberToName(1 + len(screens))
		for _, row := range []int{totalRow, sellRow, bondRow, regionalRow, finalRow} {
			formula := fmt.Sprintf("SUM(%s%d:%s%d)", firstScreenCol, row, lastScreenCol, row)
			if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", lastCol, row), formula); err != nil {
				return nil, fmt.Errorf("project cascade formula row %d: %w", row, err)
			}
		}
		if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", lastCol, marginRow),
			fmt.Sprintf("IF(%s%d=0,0,1-%s%d/%s%d)", lastCol, sellRow, lastCol, totalRow, lastCol, sellRow)); err != nil {
			return nil, fmt.Errorf("project margin formula: %w", err)
		}
	}

	// ── Client summary (sales tax on the project final total) ───────────

	salesTaxRow := finalRow + 2
	grandRow := salesTaxRow + 1
	f.SetCellValue(sheet, fmt.Sprintf("A%d", salesTaxRow), fmt.Sprintf("Sales Tax (%.2f%%)", r.SalesTaxRate*100))
	f.SetCellValue(sheet, fmt.Sprintf("A%d", grandRow), "Grand Total")
	if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", lastCol, salesTaxRow),
		fmt.Sprintf("ROUND(%s%d*%g,2)", lastCol, finalRow, r.SalesTaxRate)); err != nil {
		return nil, fmt.Errorf("sales tax formula: %w", err)
	}
	if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", lastCol, grandRow),
		fmt.Sprintf("%s%d+%s%d", lastCol, finalRow, lastCol, salesTaxRow)); err != nil {
		return nil, fmt.Errorf("grand total formula: %w", err)
	}

	// ── Styling passes ──────────────────────────────────────────────────

	f.SetCellStyle(sheet, fmt.Sprintf("A%d", firstLineRow), fmt.Sprintf("A%d", grandRow), labelStyle)
	f.SetCellStyle(sheet, fmt.Sprintf("B%d", firstLineRow), fmt.Sprintf("%s%d", lastCol, lastLineRow), moneyStyle)
	f.SetCellStyle(sheet, fmt.Sprintf("B%d", totalRow), fmt.Sprintf("%s%d", lastCol, totalRow), derivedStyle)
	f.SetCellStyle(sheet, fmt.Sprintf("B%d", marginRow), fmt.Sprintf("%s%d", lastCol, marginRow), pctStyle)
	f.SetCellStyle(sheet, fmt.Sprintf("B%d", sellRow), fmt.Sprintf("%s%d", lastCol, grandRow), derivedStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
