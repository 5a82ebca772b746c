package descriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetToolDescription(t *testing.T) {
	assert.Contains(t, GetToolDescription(ToolLedgerLookup), "invoice number")
	assert.Equal(t, "Tool description not available", GetToolDescription("pdf_read_file"))
}

func TestGetAllToolNames(t *testing.T) {
	assert.Equal(t, []string{
		ToolExtractFields,
		ToolLedgerLookup,
		ToolProcessDirectory,
		ToolProcessPDF,
		ToolServerInfo,
	}, GetAllToolNames())
}
