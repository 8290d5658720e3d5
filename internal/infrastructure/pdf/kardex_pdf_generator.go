// Package pdf genera el kardex de un producto en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Producto + SKU       │  KARDEX + fecha de corte      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDOS: Bodega | Cantidad (una fila por bodega) + total     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MOVIMIENTOS: Fecha | Tipo | Origen | Destino | Cant | Ref   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.KardexRenderer = (*KardexPDFGenerator)(nil)

// KardexPDFGenerator implementa inventory.KardexRenderer usando Maroto v2.
type KardexPDFGenerator struct{}

// NewKardexPDFGenerator construye el generador.
func NewKardexPDFGenerator() *KardexPDFGenerator { return &KardexPDFGenerator{} }

// RenderKardex genera el PDF y devuelve sus bytes.
func (g *KardexPDFGenerator) RenderKardex(report inventory.KardexReport) ([]byte, error) {
	if report.Product == nil {
		return nil, fmt.Errorf("pdf: kardex sin producto")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex "+report.Product.SKU, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionTitle("SALDOS POR BODEGA"))
	m.AddRows(balanceRows(report.Balances)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("MOVIMIENTOS"))
	m.AddRows(movementHeaderRow())
	if len(report.Movements) == 0 {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	m.AddRows(movementRows(report.Movements)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report inventory.KardexReport) core.Row {
	p := report.Product
	return row.New(18).Add(
		col.New(8).Add(
			text.New(p.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("SKU: %s   |   Unidad: %s", p.SKU, nonEmpty(p.Unit, "-")), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("KARDEX DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Corte: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

// balanceRows: una fila por bodega y el total del producto.
func balanceRows(balances []*entity.Balance) []core.Row {
	rows := make([]core.Row, 0, len(balances)+1)
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Quantity)
		rows = append(rows, row.New(5).Add(
			col.New(8).Add(text.New(b.WarehouseID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(domaininv.Format(b.Quantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	rows = append(rows, row.New(6).Add(
		col.New(8).Add(text.New("Total", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 2})),
		col.New(4).Add(text.New(domaininv.Format(total), props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 1})),
	))
	return rows
}

func movementHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a, Top: 1, Left: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 1, align.Center),
		h("Origen", 3, align.Left),
		h("Destino", 3, align.Left),
		h("Cantidad", 1, align.Right),
		h("Referencia", 2, align.Left),
	)
}

// movementRows: una fila por movimiento en el orden recibido.
func movementRows(movements []*entity.Movement) []core.Row {
	rows := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		qty := domaininv.Format(mv.Quantity)
		if mv.AdjustToQuantity != nil {
			qty = "=" + domaininv.Format(*mv.AdjustToQuantity)
		}
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 7, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		rows = append(rows, row.New(5).Add(
			cell(mv.CreatedAt.Format("02/01/2006 15:04"), 2, align.Left),
			cell(string(mv.Type), 1, align.Center),
			cell(deref(mv.FromWarehouseID), 3, align.Left),
			cell(deref(mv.ToWarehouseID), 3, align.Left),
			cell(qty, 1, align.Right),
			cell(deref(mv.Reference), 2, align.Left),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return nonEmpty(*s, "-")
}
