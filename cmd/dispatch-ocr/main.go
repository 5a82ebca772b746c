package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/dispatch-ocr/internal/config"
	"github.com/a3tai/dispatch-ocr/internal/extract"
	"github.com/a3tai/dispatch-ocr/internal/mcp"
	"github.com/a3tai/dispatch-ocr/internal/ocr"
	"github.com/a3tai/dispatch-ocr/internal/ocr/tesseract"
	"github.com/a3tai/dispatch-ocr/internal/pdf"
	"github.com/a3tai/dispatch-ocr/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger configures logrus for the run mode. In stdio mode stdout carries
// the MCP protocol, so logs go to stderr.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.IsStdioMode() {
		log.SetOutput(os.Stderr)
	}
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// newProcessor wires renderer, OCR and extractor from cfg
func newProcessor(cfg *config.Config, engine ocr.Engine, log logrus.FieldLogger) *pipeline.Processor {
	renderer := pdf.NewRenderer(pdf.RenderOptions{
		MaxFileSize:     cfg.MaxFileSize,
		Scale:           cfg.Scale,
		DPI:             cfg.DPI,
		PdftoppmPath:    cfg.PdftoppmPath,
		PreferTextLayer: cfg.PreferTextLayer,
	}, log)
	adapter := ocr.NewAdapter(engine, ocr.Options{
		Languages: cfg.Languages,
		PSMModes:  cfg.PSMModes,
		DPI:       cfg.DPI,
	}, log)
	extractor := extract.NewExtractor(extract.Options{LabelTolerance: cfg.LabelTolerance}, log)
	return pipeline.NewProcessor(renderer, adapter, extractor, log)
}

// collectFiles returns --pdf, or the --dir files matching --pattern, or both
func collectFiles(cfg *config.Config) ([]string, error) {
	var files []string
	if cfg.PDFPath != "" {
		files = append(files, cfg.PDFPath)
	}
	if cfg.Directory != "" {
		found, err := pdf.NewSearch().Find(cfg.Directory, cfg.Pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, pdf.Paths(found)...)
	}
	return files, nil
}

// runBatch processes the configured files and returns the exit code
func runBatch(ctx context.Context, cfg *config.Config, processor pipeline.DocumentProcessor, log *logrus.Logger) int {
	files, err := collectFiles(cfg)
	if err != nil {
		log.WithError(err).Error("Cannot list PDF files")
		return 1
	}
	if len(files) == 0 {
		log.WithFields(logrus.Fields{"dir": cfg.Directory, "pattern": cfg.Pattern}).Warn("No PDF files to process")
		return 0
	}

	runner := pipeline.NewRunner(processor, pipeline.RunnerOptions{
		ExcelPath:  cfg.ExcelPath,
		ArchiveDir: cfg.ArchiveDir,
	}, log)

	summary, err := runner.Run(ctx, files)
	if err != nil {
		log.WithError(err).Error("Batch stopped")
		return 1
	}
	if errs, warnings := summary.Errors.Count(); errs+warnings > 0 {
		log.Info(summary.Errors.Summary())
	}
	return 0
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	log := newLogger(cfg)
	log.WithField("config", cfg.String()).Debug("Starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing OCR engine is the one failure that ends the run outright
	engine, err := tesseract.New(cfg.OCREngine, cfg.TesseractPath)
	if err == nil {
		err = ocr.Probe(ctx, engine, cfg.Languages)
	}
	if err != nil {
		log.WithError(err).Error("OCR engine unavailable")
		os.Exit(1)
	}

	processor := newProcessor(cfg, engine, log)

	if !cfg.IsStdioMode() {
		code := runBatch(ctx, cfg, processor, log)
		stop()
		os.Exit(code)
	}

	server, err := mcp.NewServer(cfg, processor, engine.Name(), log)
	if err != nil {
		log.WithError(err).Error("Failed to create MCP server")
		os.Exit(1)
	}
	if err := server.Run(ctx); err != nil {
		log.WithError(err).Debug("Server stopped")
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Dispatch OCR\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
