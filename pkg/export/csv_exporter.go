package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is one titled table of export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// CSVExporter flattens datasets into a single CSV document.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the shared header row once followed by the rows of every dataset.
// All datasets must use the headers of the first one.
func (e *CSVExporter) Render(sets ...Dataset) ([]byte, error) {
	if len(sets) == 0 || len(sets[0].Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	headers := sets[0].Headers
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, set := range sets {
		for _, row := range set.Rows {
			record := make([]string, len(headers))
			for i, header := range headers {
				record[i] = row[header]
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
