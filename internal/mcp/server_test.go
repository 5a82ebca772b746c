package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/dispatch-ocr/internal/config"
	"github.com/a3tai/dispatch-ocr/internal/descriptions"
	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/extract"
	"github.com/a3tai/dispatch-ocr/internal/pipeline"
)

// fakeProcessor returns a canned document per file name
type fakeProcessor struct {
	docs  map[string]pipeline.Document
	calls []string
}

func (p *fakeProcessor) ProcessFile(_ context.Context, path string) (*pipeline.Document, error) {
	p.calls = append(p.calls, path)
	doc, ok := p.docs[filepath.Base(path)]
	if !ok {
		return nil, derrors.New(derrors.ErrorTypeRender, "unreadable PDF").WithFile(path)
	}
	doc.Path = path
	return &doc, nil
}

func document(invoice string) pipeline.Document {
	return pipeline.Document{
		Pages: 1,
		Text:  "Invoice #: " + invoice,
		Record: extract.OrderRecord{
			InvoiceNumber:  invoice,
			PONumber:       "98765",
			CompanyName:    "Coolair Mechanical",
			PickOrDelivery: extract.Pickup,
		},
		Products: []extract.Product{{Code: "FDC71", Description: "DUCTED INDOOR", Quantity: 2}},
		Gaps:     []extract.Field{extract.FieldDate, extract.FieldPallets},
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, docs map[string]pipeline.Document) (*Server, *fakeProcessor, *config.Config) {
	t.Helper()

	inbox := t.TempDir()
	for name := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(inbox, name), []byte("%PDF-1.4"), 0o644))
	}

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.Directory = inbox
	cfg.ExcelPath = filepath.Join(t.TempDir(), "dispatch_master.xlsx")
	cfg.ServerName = "test-server"

	proc := &fakeProcessor{docs: docs}
	s, err := NewServer(cfg, proc, "fake-ocr", quietLogger())
	require.NoError(t, err)
	return s, proc, cfg
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Directory = t.TempDir()

	_, err := NewServer(cfg, nil, "x", quietLogger())
	assert.Error(t, err)

	cfg.Directory = ""
	_, err = NewServer(cfg, &fakeProcessor{}, "x", quietLogger())
	assert.Error(t, err)
}

func TestServer_HandleProcessPDF(t *testing.T) {
	s, _, cfg := newTestServer(t, map[string]pipeline.Document{"a.pdf": document("10001")})

	result, err := s.handleProcessPDF(context.Background(), callRequest(map[string]interface{}{"path": "a.pdf"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Processed: 1, Skipped (duplicate): 0, Failed: 0")
	assert.Contains(t, text, "invoice 10001, row 2")
	assert.Contains(t, text, "Missing fields: Date, Pallets")
	assert.Contains(t, text, "Created spreadsheet")
	assert.FileExists(t, cfg.ExcelPath)

	// Second time round it is a duplicate
	result, err = s.handleProcessPDF(context.Background(), callRequest(map[string]interface{}{"path": "a.pdf"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "Skipped (duplicate): 1")
}

func TestServer_HandleProcessPDF_Rejected(t *testing.T) {
	s, proc, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{name: "missing path", args: map[string]interface{}{}},
		{name: "outside inbox", args: map[string]interface{}{"path": "../elsewhere.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleProcessPDF(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
	assert.Empty(t, proc.calls)
}

func TestServer_HandleProcessDirectory(t *testing.T) {
	s, proc, _ := newTestServer(t, map[string]pipeline.Document{
		"a.pdf": document("10001"),
		"b.pdf": document("10001"),
		"c.pdf": document("10003"),
	})
	require.NoError(t, os.WriteFile(filepath.Join(s.paths.Root(), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.paths.Root(), "broken.pdf"), []byte("x"), 0o644))

	result, err := s.handleProcessDirectory(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	text := extractTextFromResult(result)

	assert.Contains(t, text, "Processed: 2, Skipped (duplicate): 1, Failed: 1")
	assert.Len(t, proc.calls, 4)

	t.Run("pattern narrows the batch", func(t *testing.T) {
		proc.calls = nil
		result, err := s.handleProcessDirectory(context.Background(), callRequest(map[string]interface{}{"pattern": "c*.pdf"}))
		require.NoError(t, err)
		assert.Contains(t, extractTextFromResult(result), "Skipped (duplicate): 1")
		assert.Len(t, proc.calls, 1)
	})

	t.Run("nothing matches", func(t *testing.T) {
		result, err := s.handleProcessDirectory(context.Background(), callRequest(map[string]interface{}{"pattern": "zzz*.pdf"}))
		require.NoError(t, err)
		assert.Contains(t, extractTextFromResult(result), "No PDF files matching")
	})
}

func TestServer_HandleExtractFields(t *testing.T) {
	s, _, cfg := newTestServer(t, map[string]pipeline.Document{"a.pdf": document("10001")})

	t.Run("text", func(t *testing.T) {
		result, err := s.handleExtractFields(context.Background(), callRequest(map[string]interface{}{
			"path":         "a.pdf",
			"include_text": true,
		}))
		require.NoError(t, err)
		text := extractTextFromResult(result)
		assert.Contains(t, text, "Invoice Number: 10001")
		assert.Contains(t, text, "Date: (blank)")
		assert.Contains(t, text, "Not found: Date, Pallets")
		assert.Contains(t, text, "Total items: 2")
		assert.Contains(t, text, "OCR text:\nInvoice #: 10001")
	})

	t.Run("json", func(t *testing.T) {
		result, err := s.handleExtractFields(context.Background(), callRequest(map[string]interface{}{
			"path":   "a.pdf",
			"format": "json",
		}))
		require.NoError(t, err)

		var doc pipeline.Document
		require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &doc))
		assert.Equal(t, "10001", doc.Record.InvoiceNumber)
		assert.Empty(t, doc.Text)
	})

	t.Run("unreadable file", func(t *testing.T) {
		result, err := s.handleExtractFields(context.Background(), callRequest(map[string]interface{}{"path": "nope.pdf"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	assert.NoFileExists(t, cfg.ExcelPath, "a dry run never writes the spreadsheet")
}

func TestServer_HandleLedgerLookup(t *testing.T) {
	s, _, _ := newTestServer(t, map[string]pipeline.Document{"a.pdf": document("10001")})
	lookup := func(invoice interface{}) string {
		result, err := s.handleLedgerLookup(context.Background(), callRequest(map[string]interface{}{"invoice": invoice}))
		require.NoError(t, err)
		return extractTextFromResult(result)
	}

	assert.Contains(t, lookup("10001"), "does not exist yet")

	_, err := s.handleProcessPDF(context.Background(), callRequest(map[string]interface{}{"path": "a.pdf"}))
	require.NoError(t, err)

	assert.Contains(t, lookup(" 10001 "), "is already in")
	assert.Contains(t, lookup("99999"), "not found in")

	result, err := s.handleLedgerLookup(context.Background(), callRequest(map[string]interface{}{"invoice": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleServerInfo(t *testing.T) {
	s, _, _ := newTestServer(t, map[string]pipeline.Document{"a.pdf": document("1"), "b.pdf": document("2")})

	result, err := s.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := extractTextFromResult(result)

	assert.Contains(t, text, "test-server v")
	assert.Contains(t, text, "OCR engine: fake-ocr")
	assert.Contains(t, text, "Inbox (2 PDF files waiting)")
	for _, name := range descriptions.GetAllToolNames() {
		assert.Contains(t, text, name)
	}
}

func TestFormatDocument_Minimal(t *testing.T) {
	text := FormatDocument(&pipeline.Document{Path: "x.pdf"}, false)
	assert.Contains(t, text, "Fields extracted from: x.pdf")
	assert.NotContains(t, text, "Products:")
	assert.NotContains(t, text, "OCR text:")
}
