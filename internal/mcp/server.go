package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/dispatch-ocr/internal/config"
	"github.com/a3tai/dispatch-ocr/internal/descriptions"
	derrors "github.com/a3tai/dispatch-ocr/internal/errors"
	"github.com/a3tai/dispatch-ocr/internal/extract"
	"github.com/a3tai/dispatch-ocr/internal/ledger"
	"github.com/a3tai/dispatch-ocr/internal/pdf"
	"github.com/a3tai/dispatch-ocr/internal/pipeline"
	"github.com/a3tai/dispatch-ocr/internal/security"
)

// maxListedFiles caps the inbox listing in server info
const maxListedFiles = 10

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	processor  pipeline.DocumentProcessor
	runner     *pipeline.Runner
	search     *pdf.Search
	paths      *security.PathValidator
	engineName string
	mcpServer  *server.MCPServer
	log        logrus.FieldLogger

	// mu serialises tool calls so the spreadsheet has a single writer
	mu sync.Mutex
}

// NewServer creates a new MCP server over the given document processor
func NewServer(cfg *config.Config, processor pipeline.DocumentProcessor, engineName string,
	log logrus.FieldLogger) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}

	paths, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		processor: processor,
		runner: pipeline.NewRunner(processor, pipeline.RunnerOptions{
			ExcelPath:  cfg.ExcelPath,
			ArchiveDir: cfg.ArchiveDir,
		}, log),
		search:     pdf.NewSearch(),
		paths:      paths,
		engineName: engineName,
		mcpServer:  mcpServer,
		log:        log,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolProcessPDF,
		mcp.WithDescription(descriptions.ProcessPDFDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, absolute or relative to the inbox directory"),
		),
	), s.handleProcessPDF)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolProcessDirectory,
		mcp.WithDescription(descriptions.ProcessDirectoryDescription),
		mcp.WithString("pattern",
			mcp.Description("Glob pattern for file names (uses the configured pattern if empty)"),
		),
	), s.handleProcessDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractFields,
		mcp.WithDescription(descriptions.ExtractFieldsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, absolute or relative to the inbox directory"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text (default) or json"),
			mcp.Enum("text", "json"),
		),
		mcp.WithBoolean("include_text",
			mcp.Description("Append the raw OCR text to the output"),
		),
	), s.handleExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolLedgerLookup,
		mcp.WithDescription(descriptions.LedgerLookupDescription),
		mcp.WithString("invoice",
			mcp.Required(),
			mcp.Description("Invoice number to look up"),
		),
	), s.handleLedgerLookup)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

func (s *Server) handleProcessPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.runner.Run(ctx, []string{path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatSummary(summary)), nil
}

func (s *Server) handleProcessDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	pattern := s.config.Pattern
	if p, ok := request.GetArguments()["pattern"].(string); ok && p != "" {
		pattern = p
	}

	files, err := s.search.Find(s.paths.Root(), pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No PDF files matching %s in %s", pattern, s.paths.Root())), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.runner.Run(ctx, pdf.Paths(files))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatSummary(summary)), nil
}

func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	format, _ := args["format"].(string)
	includeText, _ := args["include_text"].(bool)

	s.mu.Lock()
	doc, err := s.processor.ProcessFile(ctx, path)
	s.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if format == "json" {
		if !includeText {
			doc.Text = ""
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(FormatDocument(doc, includeText)), nil
}

func (s *Server) handleLedgerLookup(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	invoice, err := request.RequireString("invoice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return mcp.NewToolResultError("invoice cannot be blank"), nil
	}

	s.mu.Lock()
	known, err := ledger.Load(s.config.ExcelPath)
	s.mu.Unlock()
	if errors.Is(err, derrors.ErrFileNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("Invoice %s not found: %s does not exist yet", invoice, s.config.ExcelPath)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if known.Has(invoice) {
		return mcp.NewToolResultText(fmt.Sprintf("Invoice %s is already in %s", invoice, s.config.ExcelPath)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Invoice %s not found in %s (%d invoices recorded)",
		invoice, s.config.ExcelPath, known.Len())), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.search.Find(s.paths.Root(), s.config.Pattern)
	if err != nil {
		s.log.WithError(err).Warn("cannot list inbox")
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

func (s *Server) formatSummary(summary *pipeline.Summary) string {
	text := fmt.Sprintf("Processed: %d, Skipped (duplicate): %d, Failed: %d\n",
		summary.Processed, summary.Skipped, summary.Failed)
	if summary.Created {
		text += fmt.Sprintf("Created spreadsheet %s\n", s.config.ExcelPath)
	}

	for i, out := range summary.Outcomes {
		text += fmt.Sprintf("\n%d. %s: %s", i+1, out.Path, out.Status)
		switch out.Status {
		case pipeline.StatusAppended:
			text += fmt.Sprintf(" (invoice %s, row %d)", displayValue(out.Invoice), out.Row)
		case pipeline.StatusDuplicate:
			text += fmt.Sprintf(" (invoice %s already recorded)", out.Invoice)
		case pipeline.StatusFailed:
			text += fmt.Sprintf(" (%s)", out.Error)
		}
		if len(out.Gaps) > 0 {
			text += fmt.Sprintf("\n   Missing fields: %s", joinFields(out.Gaps))
		}
		if out.ArchivedTo != "" {
			text += fmt.Sprintf("\n   Archived to: %s", out.ArchivedTo)
		}
	}
	return text + "\n"
}

// FormatDocument renders an extracted document for people
func FormatDocument(doc *pipeline.Document, includeText bool) string {
	text := fmt.Sprintf("Fields extracted from: %s\n", doc.Path)
	text += fmt.Sprintf("Pages: %d\n\n", doc.Pages)

	row := doc.Record.Row()
	for i, f := range extract.Columns {
		text += fmt.Sprintf("%s: %s\n", f, displayValue(row[i]))
	}

	if len(doc.Gaps) > 0 {
		text += fmt.Sprintf("\nNot found: %s\n", joinFields(doc.Gaps))
	}

	if len(doc.Products) > 0 {
		text += "\nProducts:\n"
		total := 0
		for _, p := range doc.Products {
			text += fmt.Sprintf("  %3d x %s %s\n", p.Quantity, p.Code, p.Description)
			total += p.Quantity
		}
		text += fmt.Sprintf("  Total items: %d\n", total)
	}

	if includeText {
		text += "\nOCR text:\n" + doc.Text + "\n"
	}
	return text
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	text := fmt.Sprintf("%s v%s\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Inbox: %s (pattern %s)\n", s.paths.Root(), s.config.Pattern)
	text += fmt.Sprintf("Spreadsheet: %s\n", s.config.ExcelPath)
	if s.config.ArchiveDir != "" {
		text += fmt.Sprintf("Archive: %s\n", s.config.ArchiveDir)
	}
	text += fmt.Sprintf("OCR engine: %s (languages %s, modes %v)\n",
		s.engineName, strings.Join(s.config.Languages, "+"), s.config.PSMModes)
	text += fmt.Sprintf("Label tolerance: %d\n\n", s.config.LabelTolerance)

	if len(files) == 0 {
		text += "Inbox: no PDF files waiting\n"
	} else {
		text += fmt.Sprintf("Inbox (%d PDF files waiting):\n", len(files))
		for i, f := range files {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, f.Name, f.Size)
		}
	}

	text += "\nAvailable tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		if first, _, ok := strings.Cut(desc, "\n"); ok {
			desc = first
		}
		text += fmt.Sprintf("  • %s: %s\n", name, desc)
	}
	return text
}

func joinFields(fields []extract.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func displayValue(v string) string {
	if v == "" {
		return "(blank)"
	}
	return v
}

// Run serves the tools over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.log.WithFields(logrus.Fields{
		"directory": s.paths.Root(),
		"excel":     s.config.ExcelPath,
	}).Debug("Starting dispatch MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
