// Package sheet writes dispatch rows into the xlsx workbook.
package sheet

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/extract"
)

const (
	// DefaultSheetName is the single sheet of a newly created workbook
	DefaultSheetName = "Sheet1"

	columnWidth = 20
	firstColumn = "A"
	doneColumn  = "H"
	maxRow      = 1048576
)

// DoneOptions are the values offered in the Done column
var DoneOptions = []string{"Yes", "No"}

// lastColumn is the column letter of the final header
var lastColumn = func() string {
	name, _ := excelize.ColumnNumberToName(len(extract.Columns))
	return name
}()

// Workbook is an open dispatch sheet. It holds no global state: callers open,
// mutate and save it explicitly.
type Workbook struct {
	file  *excelize.File
	sheet string
}

// EnsureFile creates the workbook at path with the header row when it does
// not exist yet. It reports whether a file was created.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, derrors.Wrap(derrors.ErrorTypeWrite, "cannot access spreadsheet", err).WithFile(path)
	}

	wb := &Workbook{file: excelize.NewFile(), sheet: DefaultSheetName}
	defer func() { _ = wb.Close() }()

	if err := wb.writeHeader(); err != nil {
		return false, derrors.Wrap(derrors.ErrorTypeWrite, "cannot write header row", err).WithFile(path)
	}
	if err := wb.Save(path); err != nil {
		return false, err
	}
	return true, nil
}

// Open loads the workbook at path. A workbook whose first row is empty gets
// the header row written.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.Wrap(derrors.ErrorTypeFileNotFound, "spreadsheet does not exist", err).WithFile(path)
		}
		return nil, derrors.Wrap(derrors.ErrorTypeWrite, "cannot open spreadsheet", err).WithFile(path)
	}

	wb := &Workbook{file: f, sheet: f.GetSheetName(f.GetActiveSheetIndex())}
	if wb.sheet == "" {
		wb.sheet = f.GetSheetName(0)
	}

	header, err := wb.Header()
	if err != nil {
		wb.Close()
		return nil, derrors.Wrap(derrors.ErrorTypeWrite, "cannot read header row", err).WithFile(path)
	}
	if len(header) == 0 {
		if err := wb.writeHeader(); err != nil {
			wb.Close()
			return nil, derrors.Wrap(derrors.ErrorTypeWrite, "cannot write header row", err).WithFile(path)
		}
		return wb, nil
	}

	// Sheets created by hand lack the Done drop-down
	if ok, err := wb.HasDoneValidation(); err == nil && !ok {
		if err := wb.addDoneValidation(); err != nil {
			wb.Close()
			return nil, derrors.Wrap(derrors.ErrorTypeWrite, "cannot add Done validation", err).WithFile(path)
		}
	}
	return wb, nil
}

// Close releases the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Rows returns every used row, header first, as raw cell values
func (w *Workbook) Rows() ([][]string, error) {
	return w.file.GetRows(w.sheet, excelize.Options{RawCellValue: true})
}

// Header returns the first row, or nil for an empty sheet
func (w *Workbook) Header() ([]string, error) {
	rows, err := w.Rows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Append writes record into the first row after the last used one and
// returns that row's number.
func (w *Workbook) Append(record extract.OrderRecord) (int, error) {
	rows, err := w.Rows()
	if err != nil {
		return 0, derrors.Wrap(derrors.ErrorTypeWrite, "cannot read rows", err)
	}
	row := len(rows) + 1
	if row < 2 {
		row = 2
	}

	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return 0, derrors.Wrap(derrors.ErrorTypeWrite, "invalid row", err)
	}

	values := record.Row()
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &cells); err != nil {
		return 0, derrors.Wrap(derrors.ErrorTypeWrite, fmt.Sprintf("cannot write row %d", row), err)
	}
	return row, nil
}

// ApplyCenterAlignment centres every used cell and keeps the header bold
func (w *Workbook) ApplyCenterAlignment() error {
	rows, err := w.Rows()
	if err != nil {
		return err
	}

	body, err := w.file.NewStyle(&excelize.Style{Alignment: centered()})
	if err != nil {
		return err
	}
	if last := len(rows); last > 1 {
		if err := w.file.SetCellStyle(w.sheet, firstColumn+"2", fmt.Sprintf("%s%d", w.usedLastColumn(rows), last), body); err != nil {
			return err
		}
	}
	return w.styleHeader()
}

// usedLastColumn is the right-most column any row reaches, at least H
func (w *Workbook) usedLastColumn(rows [][]string) string {
	widest := len(extract.Columns)
	for _, r := range rows {
		if len(r) > widest {
			widest = len(r)
		}
	}
	name, err := excelize.ColumnNumberToName(widest)
	if err != nil {
		return lastColumn
	}
	return name
}

// Save writes the workbook to path, replacing any existing file
func (w *Workbook) Save(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return derrors.Wrap(derrors.ErrorTypeWrite, "cannot save spreadsheet", err).WithFile(path)
	}
	return nil
}

func (w *Workbook) writeHeader() error {
	headers := extract.Headers()
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := w.file.SetSheetRow(w.sheet, firstColumn+"1", &cells); err != nil {
		return err
	}
	if err := w.file.SetColWidth(w.sheet, firstColumn, lastColumn, columnWidth); err != nil {
		return err
	}
	if err := w.styleHeader(); err != nil {
		return err
	}
	return w.addDoneValidation()
}

func (w *Workbook) styleHeader() error {
	style, err := w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: centered(),
	})
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(w.sheet, firstColumn+"1", lastColumn+"1", style)
}

// addDoneValidation offers a Yes/No drop-down on every data row of Done
func (w *Workbook) addDoneValidation() error {
	dv := excelize.NewDataValidation(true)
	dv.Sqref = fmt.Sprintf("%s2:%s%d", doneColumn, doneColumn, maxRow)
	if err := dv.SetDropList(DoneOptions); err != nil {
		return err
	}
	return w.file.AddDataValidation(w.sheet, dv)
}

// HasDoneValidation reports whether the Done column carries the drop-down
func (w *Workbook) HasDoneValidation() (bool, error) {
	dvs, err := w.file.GetDataValidations(w.sheet)
	if err != nil {
		return false, err
	}
	for _, dv := range dvs {
		if strings.HasPrefix(dv.Sqref, doneColumn+"2") {
			return true, nil
		}
	}
	return false, nil
}

func centered() *excelize.Alignment {
	return &excelize.Alignment{Horizontal: "center", Vertical: "center"}
}
