package app

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/klabast/wb-services/meal-roster/internal/roster"
)

var (
	pdfHeaderColor = props.Color{Red: 50, Green: 50, Blue: 50}
	pdfMutedColor  = props.Color{Red: 120, Green: 120, Blue: 120}
	pdfLineColor   = props.Color{Red: 200, Green: 200, Blue: 200}
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// GenerateMonthPDF renders a monthly summary as a one-table PDF report.
func GenerateMonthPDF(summary roster.MonthlySummary) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, "Comedor: resumen mensual", props.Text{
			Style: fontstyle.Bold,
			Size:  16,
			Color: &pdfHeaderColor,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, fmt.Sprintf("%s %d", monthNames[summary.Month-1], summary.Year), props.Text{
			Size:  12,
			Color: &pdfMutedColor,
		}),
	)
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(4)

	header := props.Text{Style: fontstyle.Bold, Size: 10, Color: &pdfHeaderColor}
	m.AddRow(8, pdfCounts(
		text.NewCol(2, "Semana", header),
		text.NewCol(4, "Días", header),
		[3]string{"Desayuno", "Comida", "Cena"}, header,
	)...)

	for _, b := range summary.Buckets {
		cell := props.Text{Size: 10}
		m.AddRow(7, pdfCounts(
			text.NewCol(2, b.Label, cell),
			text.NewCol(4, fmt.Sprintf("%s a %s (%d)", b.From, b.To, b.Days), props.Text{Size: 10, Color: &pdfMutedColor}),
			countCells(b.Counts), cell,
		)...)
	}

	total := props.Text{Style: fontstyle.Bold, Size: 12, Color: &pdfHeaderColor}
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(10, pdfCounts(
		text.NewCol(2, "Total", total),
		text.NewCol(4, "", total),
		countCells(summary.Totals), total,
	)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func countCells(c roster.Counts) [3]string {
	var out [3]string
	for i, slot := range roster.Slots {
		out[i] = strconv.Itoa(c.Get(slot))
	}
	return out
}

// pdfCounts lays out a label, a range and the three slot columns of a row.
func pdfCounts(label, span core.Col, counts [3]string, style props.Text) []core.Col {
	style.Align = align.Right
	cols := []core.Col{label, span}
	for _, c := range counts {
		cols = append(cols, text.NewCol(2, c, style))
	}
	return cols
}
