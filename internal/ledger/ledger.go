// Package ledger tracks which invoice numbers the dispatch sheet already holds.
package ledger

import (
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/extract"
)

// defaultInvoiceColumn is column B, used when the header row does not name
// the invoice column.
const defaultInvoiceColumn = 1

// KnownSet is the set of trimmed, non-blank invoice numbers in the sheet
type KnownSet map[string]struct{}

// Has reports whether invoice is already known. Blank is never known.
func (s KnownSet) Has(invoice string) bool {
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return false
	}
	_, ok := s[invoice]
	return ok
}

// Add records invoice. Blank values are ignored.
func (s KnownSet) Add(invoice string) {
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return
	}
	s[invoice] = struct{}{}
}

// Len returns the number of known invoices
func (s KnownSet) Len() int {
	return len(s)
}

// Load reads the first sheet of the workbook at path and collects its
// invoice numbers.
func Load(path string) (KnownSet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, derrors.New(derrors.ErrorTypeFileNotFound, "spreadsheet does not exist").WithFile(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrorTypeWrite, "cannot open spreadsheet", err).WithFile(path)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, derrors.Wrap(derrors.ErrorTypeWrite, "cannot read spreadsheet rows", err).WithFile(path)
	}
	return FromRows(rows), nil
}

// FromRows builds the set from sheet rows, the first of which is the header.
func FromRows(rows [][]string) KnownSet {
	set := make(KnownSet)
	if len(rows) == 0 {
		return set
	}

	col := InvoiceColumn(rows[0])
	for _, row := range rows[1:] {
		if col < len(row) {
			set.Add(row[col])
		}
	}
	return set
}

// InvoiceColumn returns the zero-based index of the Invoice Number column
// in header, matched ignoring case and spacing. It defaults to column B.
func InvoiceColumn(header []string) int {
	want := normalizeHeader(string(extract.FieldInvoiceNumber))
	for i, h := range header {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return defaultInvoiceColumn
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), ""))
}

// IsDuplicate reports whether record's invoice number is already in set.
// Records without an invoice number are never duplicates.
func IsDuplicate(record extract.OrderRecord, set KnownSet) bool {
	return set.Has(record.InvoiceNumber)
}
