// Package pdf genera el comprobante imprimible de un traslado entre lotes.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Comprobante de traslado  │  Referencia + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN: Bodega / Sección / Lote  │  DESTINO: ídem          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Cant | Costo unit. | Total         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con la referencia + firmas entrega / recibe     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-inventario/internal/application/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ inventory.TransferSlipRenderer = (*TransferSlipRenderer)(nil)

// TransferSlipRenderer implementa inventory.TransferSlipRenderer usando Maroto v2.
type TransferSlipRenderer struct {
	company string
}

// NewTransferSlipRenderer construye el generador. company aparece como autor del documento.
func NewTransferSlipRenderer(company string) *TransferSlipRenderer {
	return &TransferSlipRenderer{company: company}
}

// RenderTransferSlip genera el PDF y devuelve sus bytes.
func (g *TransferSlipRenderer) RenderTransferSlip(slip inventory.TransferSlip) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de traslado "+slip.Reference, true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(slip))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(locationsRow(slip))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(detailRow(slip))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(row.New(6))
	m.AddRows(footerRow(slip))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(slip inventory.TransferSlip) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("COMPROBANTE DE TRASLADO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Registrado por: "+nonEmpty(slip.CreatedBy, "-"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(slip.Reference, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+slip.Date.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func locationsRow(slip inventory.TransferSlip) core.Row {
	block := func(title string, loc inventory.SlipLocation) core.Col {
		return col.New(6).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("%s (%s)", loc.WarehouseName, loc.WarehouseCode), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Sección: %s   |   Lote: %s", loc.SectionName, loc.LotCode), props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
		)
	}
	return row.New(18).Add(
		block("ORIGEN", slip.Origin),
		block("DESTINO", slip.Destination),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Cant.", 2, align.Right),
		h("Costo unit.", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

func detailRow(slip inventory.TransferSlip) core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	return row.New(7).Add(
		cell(slip.SKU, 2, align.Left),
		cell(slip.ProductName, 4, align.Left),
		cell(slip.Quantity.String()+" "+slip.UnitMeasure, 2, align.Right),
		cell("$"+formatMoney(slip.UnitCost), 2, align.Right),
		cell("$"+formatMoney(slip.TotalCost), 2, align.Right),
	)
}

func footerRow(slip inventory.TransferSlip) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(slip.Reference, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Entrega: ____________________________", props.Text{Size: 9, Top: 8, Left: 4}),
			text.New("Recibe:  ____________________________", props.Text{Size: 9, Top: 22, Left: 4}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney redondea a pesos e inserta puntos de miles.
// Ej: 25000 → "25.000", 1234567.8 → "1.234.568"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
