package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
)

// catalogLine un renglón del catálogo: producto más su existencia inicial.
type catalogLine struct {
	Product  dto.CreateProductRequest
	Initial  decimal.Decimal
	UnitCost decimal.Decimal
}

// decodeCharset envuelve r según el charset del archivo. Los exportes de los ERP locales vienen en ISO-8859-1.
func decodeCharset(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("charset no soportado: %s", charset)
}

// parseCatalog lee el CSV separado por ';' con cabecera:
// sku;nombre;unidad;precio;minimo;maximo;existencia;costo
func parseCatalog(r io.Reader) ([]catalogLine, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	if len(header) < 8 {
		return nil, fmt.Errorf("cabecera con %d columnas, se esperan 8", len(header))
	}

	var out []catalogLine
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		nums := make([]decimal.Decimal, 5)
		for i, raw := range rec[3:8] {
			// Los exportes usan coma decimal.
			raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
			if raw == "" {
				continue
			}
			if nums[i], err = decimal.NewFromString(raw); err != nil {
				return nil, fmt.Errorf("línea %d columna %s: %w", line, header[3+i], err)
			}
		}
		out = append(out, catalogLine{
			Product: dto.CreateProductRequest{
				SKU:         strings.TrimSpace(rec[0]),
				Name:        strings.TrimSpace(rec[1]),
				UnitMeasure: strings.TrimSpace(rec[2]),
				Price:       nums[0],
				MinStock:    nums[1],
				MaxStock:    nums[2],
			},
			Initial:  nums[3],
			UnitCost: nums[4],
		})
	}
	return out, nil
}

// demoCatalog repuestos de ejemplo cuando no se pasa archivo.
func demoCatalog() []catalogLine {
	d := decimal.RequireFromString
	return []catalogLine{
		{Product: dto.CreateProductRequest{SKU: "FIL-ACE-01", Name: "Filtro de aceite", Price: d("18000"), MinStock: d("10"), MaxStock: d("60")}, Initial: d("24"), UnitCost: d("11500")},
		{Product: dto.CreateProductRequest{SKU: "PAS-DEL-02", Name: "Pastillas de freno delanteras", Price: d("95000"), MinStock: d("4"), MaxStock: d("20")}, Initial: d("6"), UnitCost: d("61000")},
		{Product: dto.CreateProductRequest{SKU: "ACE-10W40", Name: "Aceite 10W-40", UnitMeasure: "litro", Price: d("32000"), MinStock: d("20"), MaxStock: d("120")}, Initial: d("48.5"), UnitCost: d("21000")},
		{Product: dto.CreateProductRequest{SKU: "BUJ-NGK-03", Name: "Bujía NGK", Price: d("14000"), MinStock: d("16")}, Initial: d("8"), UnitCost: d("7800")},
	}
}
