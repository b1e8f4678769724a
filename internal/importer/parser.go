package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/invoiceflow/internal/billing"
)

const maxImportSize = 10 << 20

// ParseRecipients reads a spreadsheet export of clients. The delimiter is
// ';' or ',', whichever the first line using either uses more; headers may
// be Spanish or English and appear after preamble rows. Recipients come back
// without ids. Input over maxImportSize is rejected.
func ParseRecipients(r io.Reader) ([]billing.Recipient, error) {
	input, err := io.ReadAll(io.LimitReader(r, maxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if len(input) > maxImportSize {
		return nil, fmt.Errorf("%w: file too large: limit is %d bytes", billing.ErrInvalidInput, maxImportSize)
	}

	utf8r, charset, err := toUTF8(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read %s input: %w", charset, err)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = delimiter(raw)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", billing.ErrInvalidInput, err)
	}

	cols, headerIdx, ok := detectHeader(rows)
	if !ok {
		return nil, fmt.Errorf("%w: no recipient header found: expected a name column", billing.ErrInvalidInput)
	}

	var recipients []billing.Recipient

	for i, row := range rows[headerIdx+1:] {
		rowNum := headerIdx + i + 2

		if blank(row) {
			continue
		}

		name := cols.value(row, fieldName)
		if name == "" {
			return nil, fmt.Errorf("%w: row %d: missing name", billing.ErrInvalidInput, rowNum)
		}

		recipients = append(recipients, billing.Recipient{
			Name:       name,
			TaxID:      cols.value(row, fieldTaxID),
			Address:    cols.value(row, fieldAddress),
			City:       cols.value(row, fieldCity),
			PostalCode: cols.value(row, fieldPostalCode),
			Province:   cols.value(row, fieldProvince),
			IsFavorite: parseFlag(cols.value(row, fieldFavorite)),
		})
	}

	return recipients, nil
}

// delimiter looks at the first line holding either separator, so title
// rows above the table do not decide it.
func delimiter(raw []byte) rune {
	for line := range bytes.Lines(raw) {
		commas := bytes.Count(line, []byte(","))
		semis := bytes.Count(line, []byte(";"))

		if commas == 0 && semis == 0 {
			continue
		}

		if commas > semis {
			return ','
		}

		return ';'
	}

	return ';'
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
