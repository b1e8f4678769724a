package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
	"github.com/MrJamesThe3rd/invoiceflow/internal/render"
)

var (
	navy  = &props.Color{Red: 0, Green: 0, Blue: 102}
	gray  = &props.Color{Red: 100, Green: 100, Blue: 100}
	white = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// Maroto lays the document out in-process. It needs no browser and is the
// default converter.
type Maroto struct{}

func NewMaroto() *Maroto { return &Maroto{} }

func (m *Maroto) Convert(ctx context.Context, doc *render.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is required", billing.ErrInvalidInput)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Title, true).
		WithAuthor(doc.Issuer.Name, true).
		Build()

	mrt := maroto.New(cfg)

	mrt.AddRows(partiesRow(doc))
	mrt.AddRows(line.NewRow(2))
	mrt.AddRows(documentRow(doc))
	mrt.AddRows(line.NewRow(1, props.Line{Color: navy, Thickness: 0.5}))
	mrt.AddRows(itemsHeaderRow())

	for _, r := range doc.Rows {
		mrt.AddRows(itemRow(r))
	}

	mrt.AddRows(line.NewRow(1, props.Line{Color: navy, Thickness: 0.3}))
	mrt.AddRows(taxRows(doc.Totals)...)
	mrt.AddRows(line.NewRow(4))
	mrt.AddRows(footerRows(doc)...)

	out, err := mrt.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	return out.GetBytes(), nil
}

func partiesRow(doc *render.Document) core.Row {
	party := func(p render.Party) []core.Component {
		return []core.Component{
			text.New(p.Name, props.Text{Style: fontstyle.Bold, Size: 11, Top: 1}),
			text.New(p.TaxID, props.Text{Size: 9, Top: 7}),
			text.New(p.Address, props.Text{Size: 9, Top: 12}),
			text.New(p.Locality, props.Text{Size: 9, Top: 17}),
		}
	}

	return row.New(24).Add(
		col.New(6).Add(party(doc.Issuer)...),
		col.New(6).Add(party(doc.Recipient)...),
	)
}

func documentRow(doc *render.Document) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Color: navy}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Center, Top: 5}),
		)
	}

	return row.New(12).Add(
		cell("DOCUMENTO", "Factura"),
		cell("NÚMERO", doc.Number),
		cell("FECHA", doc.Date),
	)
}

func itemsHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: white, Top: 2, Left: 1, Right: 1,
		}))
	}

	return row.New(8).Add(
		h("#", 1, align.Center),
		h("DESCRIPCIÓN", 5, align.Left),
		h("CANT", 1, align.Right),
		h("PRECIO", 2, align.Right),
		h("DTO.", 1, align.Right),
		h("TOTAL", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: navy})
}

func itemRow(r render.Row) core.Row {
	cell := func(value string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}

	return row.New(7).Add(
		cell(fmt.Sprint(r.Index), 1, align.Center),
		cell(r.Concept, 5, align.Left),
		cell(r.Quantity, 1, align.Right),
		cell(r.Price, 2, align.Right),
		cell(r.Discount, 1, align.Right),
		cell(r.Total, 2, align.Right),
	)
}

func taxRows(t render.Totals) []core.Row {
	label := func(s string) core.Col {
		return col.New(3).Add(text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: navy}))
	}
	value := func(s string) core.Col {
		return col.New(3).Add(text.New(s, props.Text{Size: 9, Align: align.Right}))
	}

	return []core.Row{
		row.New(6).Add(label("BASE"), label("I.V.A."), label("I.R.P.F. ("+t.RetentionRate+"%)"), label("TOTAL")),
		row.New(7).Add(value(t.Subtotal), value(t.Tax), value(t.Retention), value(t.Total)),
		row.New(10).Add(
			col.New(9).Add(text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 2})),
			col.New(3).Add(text.New(t.Total, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 2})),
		),
	}
}

func footerRows(doc *render.Document) []core.Row {
	return []core.Row{
		row.New(6).Add(
			col.New(4).Add(text.New("Vencimiento", props.Text{Style: fontstyle.Bold, Size: 8, Color: navy})),
			col.New(8).Add(text.New("Cuenta Bancaria", props.Text{Style: fontstyle.Bold, Size: 8, Color: navy})),
		),
		row.New(7).Add(
			col.New(4).Add(text.New(doc.DueDate, props.Text{Size: 9})),
			col.New(8).Add(text.New(doc.IBAN, props.Text{Size: 9, Color: gray})),
		),
	}
}
