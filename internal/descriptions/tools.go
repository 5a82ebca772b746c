package descriptions

import "sort"

// Tool names served over MCP
const (
	ToolProcessPDF       = "dispatch_process_pdf"
	ToolProcessDirectory = "dispatch_process_directory"
	ToolExtractFields    = "dispatch_extract_fields"
	ToolLedgerLookup     = "dispatch_ledger_lookup"
	ToolServerInfo       = "dispatch_server_info"
)

const (
	ProcessPDFDescription = `OCR one scanned PDF order sheet and append it to the dispatch spreadsheet.

**When to use:** A single new order sheet has arrived and should become a dispatch row.

**What happens:** The PDF is rendered, read with Tesseract, and the Date, Invoice Number, PO Number, Company Name, Pick up number-Time and Pallets fields are extracted. If the invoice number is already in the spreadsheet the file is skipped as a duplicate. Otherwise a row is appended and the workbook saved.

**Examples:**
• "Process inbox/INV20250412.pdf"
• "Add order-sheet-7.pdf to the dispatch sheet"

**Best practices:** Run dispatch_extract_fields first when a scan looks poor; fields that could not be found are listed so the row can be reviewed.`

	ProcessDirectoryDescription = `OCR every PDF in the configured inbox and append new orders to the dispatch spreadsheet.

**When to use:** A batch of order sheets has been scanned into the inbox.

**What happens:** Files matching the pattern (default *.pdf) are processed in name order. Duplicates are skipped, unreadable PDFs are reported and the batch carries on.

**Examples:**
• "Process everything in the inbox"
• "Process only files matching 9*.pdf"

**Best practices:** Check the per-file outcome list; failed files stay in the inbox for a retry.`

	ExtractFieldsDescription = `Dry run: OCR one PDF and show the fields that would be written, without touching the spreadsheet.

**When to use:** Checking scan quality, debugging a missed field, or previewing a row.

**Output:** The dispatch record, any product lines from the item table, the fields that were not found, and optionally the raw OCR text. Use format "json" for machine-readable output.`

	LedgerLookupDescription = `Check whether an invoice number is already in the dispatch spreadsheet.

**When to use:** Before re-processing a sheet, or to answer "has invoice 20250412 been entered?".

**Matching:** Exact after trimming whitespace. A blank invoice number is never reported as present.`

	ServerInfoDescription = `Show the server configuration, the OCR engine in use, the PDFs waiting in the inbox and the available tools.

**When to use:** First call in a session, or to see what is left to process.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolProcessPDF:       ProcessPDFDescription,
	ToolProcessDirectory: ProcessDirectoryDescription,
	ToolExtractFields:    ExtractFieldsDescription,
	ToolLedgerLookup:     LedgerLookupDescription,
	ToolServerInfo:       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
