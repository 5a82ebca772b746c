package extract

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestExtractor(tolerance int) *Extractor {
	return NewExtractor(Options{LabelTolerance: tolerance}, quietLogger())
}

func TestExtract_InvoiceAndPO(t *testing.T) {
	res := newTestExtractor(DefaultLabelTolerance).Extract("Invoice #: 12345\nPO: 98765")

	assert.Equal(t, "12345", res.Record.InvoiceNumber)
	assert.Equal(t, "98765", res.Record.PONumber)
	assert.Equal(t, Pickup, res.Record.PickOrDelivery)
	assert.Empty(t, res.Record.Done)
	assert.ElementsMatch(t, []Field{FieldDate, FieldCompanyName, FieldPickupNumberTime, FieldPallets}, res.Gaps)
}

const sampleSheet = `TAX INVOICE
Invoice No: 20250412
Date: 14/03/2025
Bill To: Coolair Mechanical Pty Ltd
12 Industrial Drive
PO Ship VIA Ship Date
$251212942
Customer Pickup 15/03/2025
Pick up number-Time: 0830 Dock 2
Pallets: 3
QTY | ITEM DESCRIPTION
2 | FDC71 ducted INDOOR unit
1 | RZA71
outdoor unit 7.1kW
4 | PLC-P Casstte   panel
COMMENTS: leave at gate
PREPARED BY: J`

func TestExtract_FullSheet(t *testing.T) {
	res := newTestExtractor(DefaultLabelTolerance).Extract(sampleSheet)

	assert.Equal(t, OrderRecord{
		Date:             "14/03/2025",
		InvoiceNumber:    "20250412",
		PONumber:         "S251212942",
		CompanyName:      "Coolair Mechanical Pty Ltd",
		PickOrDelivery:   Pickup,
		PickupNumberTime: "0830 Dock 2",
		Pallets:          "3",
	}, res.Record)
	assert.Empty(t, res.Gaps)

	require.Len(t, res.Products, 3)
	assert.Equal(t, Product{Code: "FDC71", Description: "DUCTED INDOOR unit", Quantity: 2}, res.Products[0])
	assert.Equal(t, Product{Code: "RZA71", Description: "OUTDOOR unit 7.1kW", Quantity: 1}, res.Products[1])
	assert.Equal(t, Product{Code: "PLC-P", Description: "Cassette Panel", Quantity: 4}, res.Products[2])
	assert.Equal(t, 7, res.TotalQuantity())
}

func TestExtract_Fields(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field Field
		want  string
	}{
		{name: "invoice number label", text: "Invoice Number: 778812", field: FieldInvoiceNumber, want: "778812"},
		{name: "invoice glued to digits", text: "INV55120", field: FieldInvoiceNumber, want: "55120"},
		{name: "invoice with OCR typo", text: "Invoce # 40021", field: FieldInvoiceNumber, want: "40021"},
		{name: "invoice falls back to long number", text: "Ref 123\n 0042118812 ", field: FieldInvoiceNumber, want: "0042118812"},
		{name: "invoice date ignored for invoice number", text: "Invoice Date: 1/2/2025\nInvoice: 991", field: FieldInvoiceNumber, want: "991"},

		{name: "PO number label", text: "PO Number: A-1123", field: FieldPONumber, want: "A-1123"},
		{name: "P.O. with dots", text: "P.O. 88213", field: FieldPONumber, want: "88213"},
		{name: "purchase order", text: "Purchase Order No. 5521", field: FieldPONumber, want: "5521"},
		{name: "pickup number is a PO", text: "Pickup No: 3071", field: FieldPONumber, want: "3071"},
		{name: "pickup date is not a PO", text: "Customer Pickup 15/03/2025", field: FieldPONumber, want: ""},
		{name: "PO without digits rejected", text: "PO Box\nPO: 4410", field: FieldPONumber, want: "4410"},
		{name: "PO dollar misread", text: "PO: $25121", field: FieldPONumber, want: "S25121"},
		{name: "PO below header", text: "PO Ship VIA\n\nCustomer Pickup\nS7781\n", field: FieldPONumber, want: "S7781"},
		{name: "PO below header too far", text: "PO\na\nb\nc\nd\nS7781", field: FieldPONumber, want: ""},
		{
			name:  "PO between bill and ship",
			text:  "Bill To\nAcme\n3175 VIC\n88120\nShip To\nWarehouse",
			field: FieldPONumber, want: "88120",
		},

		{name: "date label", text: "Date 3.4.2025", field: FieldDate, want: "3.4.2025"},
		{name: "date fallback", text: "Printed 03-04-2025 by admin", field: FieldDate, want: "03-04-2025"},
		{name: "short year needs label", text: "Date: 3/4/25", field: FieldDate, want: "3/4/25"},

		{name: "company on label line", text: "Bill To: Acme Pty Ltd", field: FieldCompanyName, want: "Acme Pty Ltd"},
		{name: "company on next line", text: "Bill To:\n\n  Acme Pty Ltd  \nShip To", field: FieldCompanyName, want: "Acme Pty Ltd"},
		{name: "company beside ship to", text: "Bill To Ship To\nAcme Pty Ltd", field: FieldCompanyName, want: "Acme Pty Ltd"},
		{name: "company joined label", text: "BillTo: Acme", field: FieldCompanyName, want: "Acme"},
		{name: "company stops at column gap", text: "Sold To: Acme    Invoice: 1", field: FieldCompanyName, want: "Acme"},

		{name: "pallets", text: "Pallets: 12", field: FieldPallets, want: "12"},
		{name: "pallets OCR typo", text: "Palets 4", field: FieldPallets, want: "4"},
		{name: "plts", text: "PLTS - 2", field: FieldPallets, want: "2"},

		{name: "pickup time", text: "Pickup Time: 2pm", field: FieldPickupNumberTime, want: "2pm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestExtractor(DefaultLabelTolerance).Extract(tt.text)
			assert.Equal(t, tt.want, res.Record.Get(tt.field))
			if tt.want == "" {
				assert.Contains(t, res.Gaps, tt.field)
			} else {
				assert.NotContains(t, res.Gaps, tt.field)
			}
		})
	}
}

func TestExtract_LabelTolerance(t *testing.T) {
	text := "Invoce: 40021"

	assert.Equal(t, "40021", newTestExtractor(1).Extract(text).Record.InvoiceNumber)
	assert.Empty(t, newTestExtractor(0).Extract(text).Record.InvoiceNumber)
	assert.Empty(t, newTestExtractor(-3).Extract(text).Record.InvoiceNumber)

	assert.Empty(t, newTestExtractor(0).Extract("Inv0ise: 40021").Record.InvoiceNumber)

	twoEdits := "Imvoise: 40021"
	assert.Empty(t, newTestExtractor(1).Extract(twoEdits).Record.InvoiceNumber)
	assert.Equal(t, "40021", newTestExtractor(2).Extract(twoEdits).Record.InvoiceNumber)
}

func TestExtract_ExactLabelBeatsEarlierNearMiss(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field Field
		want  string
	}{
		{name: "invoice", text: "Invoices: 3 attached\nInvoice #: 12345\nPO: 98765", field: FieldInvoiceNumber, want: "12345"},
		{name: "date", text: "Rate: 12/03/2024\nDate: 01/01/2025", field: FieldDate, want: "01/01/2025"},
		{name: "company", text: "Will To: Nobody\nBill To: Acme Pty Ltd", field: FieldCompanyName, want: "Acme Pty Ltd"},
		{name: "pallets", text: "Palets 9\nPallets: 2", field: FieldPallets, want: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestExtractor(DefaultLabelTolerance).Extract(tt.text)
			assert.Equal(t, tt.want, res.Record.Get(tt.field))
		})
	}
}

func TestExtract_ShortLabelsNeverFuzzy(t *testing.T) {
	res := newTestExtractor(DefaultLabelTolerance).Extract("Plus 10% GST\nRate: 5\nWill To: Nobody\nInvoice #: 12345")

	assert.Empty(t, res.Record.Pallets)
	assert.Empty(t, res.Record.CompanyName)
	assert.Equal(t, "12345", res.Record.InvoiceNumber)
	assert.Contains(t, res.Gaps, FieldPallets)
	assert.Contains(t, res.Gaps, FieldCompanyName)
}

func TestExtract_EmptyText(t *testing.T) {
	res := newTestExtractor(DefaultLabelTolerance).Extract("")

	assert.Equal(t, OrderRecord{PickOrDelivery: Delivery}, res.Record)
	assert.Len(t, res.Gaps, 6)
	assert.Empty(t, res.Products)
}

func TestExtractPages(t *testing.T) {
	res := newTestExtractor(DefaultLabelTolerance).ExtractPages([]string{"Invoice: 11", "PO: 22A"})
	assert.Equal(t, "11", res.Record.InvoiceNumber)
	assert.Equal(t, "22A", res.Record.PONumber)
}

func TestNewExtractorWithRules(t *testing.T) {
	rules := []Rule{{Field: FieldPallets, Labels: []string{"Skids"}, Capture: CaptureNumber}}
	e := NewExtractorWithRules(rules, Options{}, quietLogger())

	res := e.Extract("Skids: 9\nInvoice: 1")
	assert.Equal(t, "9", res.Record.Pallets)
	assert.Empty(t, res.Record.InvoiceNumber)
	assert.Empty(t, res.Gaps)
}

func TestPickOrDelivery(t *testing.T) {
	assert.Equal(t, Pickup, PickOrDelivery("S123"))
	assert.Equal(t, Delivery, PickOrDelivery(""))
	assert.Equal(t, Delivery, PickOrDelivery("   "))
}

func TestOrderRecord_Row(t *testing.T) {
	r := OrderRecord{
		Date: "1/1/2025", InvoiceNumber: "1", PONumber: "2", CompanyName: "Acme",
		PickOrDelivery: "P", PickupNumberTime: "9am", Pallets: "3", Done: "Yes",
	}
	assert.Equal(t, []string{"1/1/2025", "1", "2", "Acme", "P", "9am", "3", "Yes"}, r.Row())
	assert.Equal(t, []string{
		"Date", "Invoice Number", "PO Number", "Company Name",
		"Pick/Delivery", "Pick up number-Time", "Pallets", "Done",
	}, Headers())

	var empty OrderRecord
	empty.Set(Field("Nope"), "x")
	assert.Equal(t, OrderRecord{}, empty)
	assert.Empty(t, empty.Get(Field("Nope")))
}
