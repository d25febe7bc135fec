package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets as consecutive tables in an A4 document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with a document title and one captioned table per dataset.
func (e *PDFExporter) Render(title string, sets ...Dataset) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	for _, set := range sets {
		if len(set.Headers) == 0 {
			return nil, fmt.Errorf("pdf table %q requires at least one header", set.Title)
		}
		if set.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.MultiCell(0, 7, tr(set.Title), "", "L", false)
		}

		pdf.SetFont("Arial", "B", 10)
		colWidth := 190.0 / float64(len(set.Headers))
		for _, header := range set.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		if len(set.Rows) == 0 {
			pdf.CellFormat(190, 7, "no responses", "1", 1, "C", false, 0, "")
		}
		for _, row := range set.Rows {
			for _, header := range set.Headers {
				pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
