package pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// MonthlyInvoiceData is a fully formatted monthly invoice. Amounts are
// already rendered with the currency symbol.
type MonthlyInvoiceData struct {
	BusinessName    string
	BusinessAddress string
	BusinessPhone   string

	InvoiceNumber string
	IssueDate     string
	// Period is the human month label, e.g. "January 2024".
	Period string

	CustomerName    string
	CustomerPhone   string
	CustomerAddress string

	Lines []InvoiceLine
	Total string
	// Notes are printed under the totals, one per row.
	Notes  []string
	Footer string
}

type InvoiceLine struct {
	Date      string
	Product   string
	Quantity  int64
	UnitPrice string
	Amount    string
}

var ErrNoLines = errors.New("invoice has no lines")

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) RenderMonthlyInvoice(ctx context.Context, invoice MonthlyInvoiceData) ([]byte, error) {
	if len(invoice.Lines) == 0 {
		return nil, ErrNoLines
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, invoice.BusinessName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "INVOICE", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New(invoice.BusinessAddress, props.Text{Size: 9}),
			text.New(invoice.BusinessPhone, props.Text{Size: 9, Top: 5}),
		),
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Size: 9, Align: align.Right}),
			text.New("Date of issue: "+invoice.IssueDate, props.Text{Size: 9, Top: 5, Align: align.Right}),
			text.New("Billing period: "+invoice.Period, props.Text{Size: 9, Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(25,
		col.New(12).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.CustomerName, props.Text{Top: 5}),
			text.New(invoice.CustomerPhone, props.Text{Top: 10, Size: 9}),
			text.New(invoice.CustomerAddress, props.Text{Top: 15, Size: 9}),
		),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(8,
		text.NewCol(2, "Date", header),
		text.NewCol(4, "Product", header),
		text.NewCol(2, "Qty", headerRight),
		text.NewCol(2, "Unit price", headerRight),
		text.NewCol(2, "Amount", headerRight),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, l := range invoice.Lines {
		m.AddRow(6,
			text.NewCol(2, l.Date, cell),
			text.NewCol(4, l.Product, cell),
			text.NewCol(2, fmt.Sprintf("%d", l.Quantity), cellRight),
			text.NewCol(2, l.UnitPrice, cellRight),
			text.NewCol(2, l.Amount, cellRight),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, invoice.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	for _, note := range invoice.Notes {
		m.AddRow(6, text.NewCol(12, note, props.Text{Size: 8, Style: fontstyle.Italic}))
	}

	if invoice.Footer != "" {
		m.AddRow(15, text.NewCol(12, invoice.Footer, props.Text{Size: 9, Top: 5, Align: align.Center}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
