// Package extract pulls dispatch fields out of noisy OCR text.
package extract

// Field names a column of the dispatch sheet. The value is the header text.
type Field string

const (
	FieldDate             Field = "Date"
	FieldInvoiceNumber    Field = "Invoice Number"
	FieldPONumber         Field = "PO Number"
	FieldCompanyName      Field = "Company Name"
	FieldPickOrDelivery   Field = "Pick/Delivery"
	FieldPickupNumberTime Field = "Pick up number-Time"
	FieldPallets          Field = "Pallets"
	FieldDone             Field = "Done"
)

// Columns is the fixed column order of the dispatch sheet
var Columns = []Field{
	FieldDate,
	FieldInvoiceNumber,
	FieldPONumber,
	FieldCompanyName,
	FieldPickOrDelivery,
	FieldPickupNumberTime,
	FieldPallets,
	FieldDone,
}

// Headers returns the header row text in column order
func Headers() []string {
	out := make([]string, len(Columns))
	for i, f := range Columns {
		out[i] = string(f)
	}
	return out
}

// OrderRecord is one row of the dispatch sheet. Missing fields are blank.
type OrderRecord struct {
	Date             string `json:"date"`
	InvoiceNumber    string `json:"invoice_number"`
	PONumber         string `json:"po_number"`
	CompanyName      string `json:"company_name"`
	PickOrDelivery   string `json:"pick_or_delivery"`
	PickupNumberTime string `json:"pickup_number_time"`
	Pallets          string `json:"pallets"`
	Done             string `json:"done"`
}

// Get returns the value of field
func (r *OrderRecord) Get(field Field) string {
	switch field {
	case FieldDate:
		return r.Date
	case FieldInvoiceNumber:
		return r.InvoiceNumber
	case FieldPONumber:
		return r.PONumber
	case FieldCompanyName:
		return r.CompanyName
	case FieldPickOrDelivery:
		return r.PickOrDelivery
	case FieldPickupNumberTime:
		return r.PickupNumberTime
	case FieldPallets:
		return r.Pallets
	case FieldDone:
		return r.Done
	default:
		return ""
	}
}

// Set assigns value to field. Unknown fields are ignored.
func (r *OrderRecord) Set(field Field, value string) {
	switch field {
	case FieldDate:
		r.Date = value
	case FieldInvoiceNumber:
		r.InvoiceNumber = value
	case FieldPONumber:
		r.PONumber = value
	case FieldCompanyName:
		r.CompanyName = value
	case FieldPickOrDelivery:
		r.PickOrDelivery = value
	case FieldPickupNumberTime:
		r.PickupNumberTime = value
	case FieldPallets:
		r.Pallets = value
	case FieldDone:
		r.Done = value
	}
}

// Row returns the record's cells in Columns order
func (r *OrderRecord) Row() []string {
	out := make([]string, len(Columns))
	for i, f := range Columns {
		out[i] = r.Get(f)
	}
	return out
}

// Product is one line of the order's item table
type Product struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// Result is everything extracted from one document's text
type Result struct {
	Record   OrderRecord `json:"record"`
	Products []Product   `json:"products,omitempty"`
	// Gaps lists the fields that could not be found
	Gaps []Field `json:"gaps,omitempty"`
}

// TotalQuantity sums the quantity of every product line
func (r *Result) TotalQuantity() int {
	total := 0
	for _, p := range r.Products {
		total += p.Quantity
	}
	return total
}
