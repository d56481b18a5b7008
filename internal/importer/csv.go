package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadRows reads statement rows per the bank's delimiter and header flag.
// Ragged rows are tolerated; missing cells resolve to empty values. Returns
// the rows keyed by column name.
func ReadRows(r io.Reader, cfg BankConfig) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if cfg.Delimiter != 0 {
		reader.Comma = cfg.Delimiter
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var headers []string
	body := records
	if cfg.HasHeader {
		headers = make([]string, len(records[0]))
		for i, h := range records[0] {
			headers[i] = strings.TrimSpace(h)
		}
		body = records[1:]
	}

	rows := make([]RawRow, 0, len(body))
	for _, record := range body {
		row := make(RawRow, len(record))
		for i, cell := range record {
			name := columnName(headers, i)
			row[name] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnName returns the header name for index i, or a generated
// "column<N>" name for headerless files and overlong rows.
func columnName(headers []string, i int) string {
	if i < len(headers) && headers[i] != "" {
		return headers[i]
	}
	return fmt.Sprintf("column%d", i+1)
}
