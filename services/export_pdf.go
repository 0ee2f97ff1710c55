package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ProposalPDFData is everything the client-facing proposal document needs.
// It is built from the ClientSummary and the display list only: internal
// cost lines never reach this document.
type ProposalPDFData struct {
	Title       string
	Client      string
	Address     string
	Venue       string
	CreatedDate string
	Screens     []ScreenAudit
	Summary     ClientSummary
}

// GenerateProposalPDF creates the client proposal PDF using maroto/v2. It
// returns the raw PDF bytes or an error.
func GenerateProposalPDF(data ProposalPDFData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addProposalHeader(m, data)
	addDisplayTableHeader(m)
	for i, s := range data.Screens {
		addDisplayRow(m, i+1, s)
	}
	addProposalSummary(m, data.Summary)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// addProposalHeader adds the title, client and venue lines.
func addProposalHeader(m core.Maroto, data ProposalPDFData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	gray := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Prepared for: %s", data.Client), props.Text{
					Size: 9, Align: align.Left, Color: gray,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size: 9, Align: align.Right, Color: gray,
				}),
			),
		),
	)

	venue := data.Venue
	if venue == "" {
		venue = data.Address
	}
	if venue != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(
					text.New(fmt.Sprintf("Site: %s", venue), props.Text{
						Size: 9, Align: align.Left, Color: gray,
					}),
				),
			),
		)
	}

	// Spacer
	m.AddRows(row.New(4))
}

// addDisplayTableHeader adds the column header row for the display table.
func addDisplayTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("#", headerText)).WithStyle(&headerCell),
			col.New(4).Add(text.New("Display", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Qty", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Size (ft)", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Resolution", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Price", headerText)).WithStyle(&headerCell),
		),
	)
}

// addDisplayRow adds one display line to the table.
func addDisplayRow(m core.Maroto, index int, s ScreenAudit) {
	baseText := props.Text{Size: 8, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	var cellStyle *props.Cell
	if index%2 == 0 {
		bg := &props.Color{Red: 245, Green: 245, Blue: 245}
		cellStyle = &props.Cell{BackgroundColor: bg}
	}

	sizeStr := fmt.Sprintf("%s x %s", formatQty(s.HeightFt), formatQty(s.WidthFt))

	colIndex := col.New(1).Add(text.New(fmt.Sprintf("%d", index), baseText))
	colName := col.New(4).Add(text.New(s.Name, leftText))
	colQty := col.New(1).Add(text.New(fmt.Sprintf("%d", s.Quantity), baseText))
	colSize := col.New(2).Add(text.New(sizeStr, baseText))
	colRes := col.New(2).Add(text.New(s.PixelMatrix, baseText))
	colPrice := col.New(2).Add(text.New(FormatUSD(s.Breakdown.FinalClientTotal), rightText))

	if cellStyle != nil {
		colIndex = colIndex.WithStyle(cellStyle)
		colName = colName.WithStyle(cellStyle)
		colQty = colQty.WithStyle(cellStyle)
		colSize = colSize.WithStyle(cellStyle)
		colRes = colRes.WithStyle(cellStyle)
		colPrice = colPrice.WithStyle(cellStyle)
	}

	m.AddRows(row.New(7).Add(colIndex, colName, colQty, colSize, colRes, colPrice))
}

// addProposalSummary adds the subtotal / sales tax / total block.
func addProposalSummary(m core.Maroto, s ClientSummary) {
	// Spacer before summary
	m.AddRows(row.New(6))

	summaryBg := &props.Color{Red: 240, Green: 240, Blue: 240}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	valueStyle := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := []struct {
		label string
		value float64
	}{
		{"Subtotal", s.Subtotal},
		{"Sales Tax", s.SalesTax},
		{"Project Total", s.Total},
	}
	for _, line := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(line.label, labelStyle)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatUSD(line.value), valueStyle)).WithStyle(summaryCell),
			),
		)
	}
}

// formatQty renders a float without trailing zeros: whole numbers stay
// whole, fractional values keep 2 decimals.
func formatQty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
