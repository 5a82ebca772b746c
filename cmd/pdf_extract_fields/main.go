package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/a3tai/dispatch-ocr/internal/config"
	"github.com/a3tai/dispatch-ocr/internal/extract"
	"github.com/a3tai/dispatch-ocr/internal/mcp"
	"github.com/a3tai/dispatch-ocr/internal/ocr"
	"github.com/a3tai/dispatch-ocr/internal/ocr/tesseract"
	"github.com/a3tai/dispatch-ocr/internal/pdf"
	"github.com/a3tai/dispatch-ocr/internal/pipeline"
)

// options are the parsed command line of one invocation
type options struct {
	format         string
	fromText       bool
	showText       bool
	verbose        bool
	engine         string
	tesseract      string
	languages      []string
	psm            []int
	dpi            int
	scale          int
	labelTolerance int
	textLayer      bool
}

// ExtractionResult is the JSON output of one file
type ExtractionResult struct {
	FilePath       string             `json:"file_path"`
	Success        bool               `json:"success"`
	Document       *pipeline.Document `json:"document,omitempty"`
	Error          string             `json:"error,omitempty"`
	ExtractionTime string             `json:"extraction_time,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, paths, err := parseArgs(args, stderr)
	if err == pflag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return 2
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	extractor := extract.NewExtractor(extract.Options{LabelTolerance: opts.labelTolerance}, log)

	var processor *pipeline.Processor
	if !opts.fromText {
		engine, err := tesseract.New(opts.engine, opts.tesseract)
		if err == nil {
			err = ocr.Probe(context.Background(), engine, opts.languages)
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		renderer := pdf.NewRenderer(pdf.RenderOptions{
			MaxFileSize:     config.DefaultMaxFileSize,
			Scale:           opts.scale,
			DPI:             opts.dpi,
			PdftoppmPath:    config.DefaultPdftoppmPath,
			PreferTextLayer: opts.textLayer,
		}, log)
		adapter := ocr.NewAdapter(engine, ocr.Options{Languages: opts.languages, PSMModes: opts.psm, DPI: opts.dpi}, log)
		processor = pipeline.NewProcessor(renderer, adapter, extractor, log)
	}

	code := 0
	for _, path := range paths {
		result := extractFile(path, opts, processor, extractor)
		if !result.Success {
			code = 1
		}
		if err := outputResult(stdout, result, opts); err != nil {
			fmt.Fprintf(stderr, "Error writing output: %v\n", err)
			return 1
		}
	}
	return code
}

func parseArgs(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("pdf_extract_fields", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.BoolVar(&opts.fromText, "from-text", false, "Inputs are OCR text dumps, skip rendering and OCR")
	fs.BoolVar(&opts.showText, "show-text", false, "Include the OCR text in the output")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log every extracted field")
	fs.StringVar(&opts.engine, "ocr-engine", ocr.EngineGosseract, "OCR backend: gosseract, cli")
	fs.StringVar(&opts.tesseract, "tesseract", config.DefaultTesseractPath, "Path to the tesseract binary (cli engine)")
	fs.StringSliceVar(&opts.languages, "lang", []string{"eng"}, "Tesseract languages")
	fs.IntSliceVar(&opts.psm, "psm", ocr.DefaultPSMModes, "Page segmentation modes to try")
	fs.IntVar(&opts.dpi, "dpi", config.DefaultDPI, "Rasterisation resolution")
	fs.IntVar(&opts.scale, "scale", config.DefaultScale, "Upscale factor for embedded scans")
	fs.IntVar(&opts.labelTolerance, "label-tolerance", config.DefaultLabelTolerance, "Max OCR edits per label word")
	fs.BoolVar(&opts.textLayer, "text-layer", false, "Use the native text layer when present")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if opts.format != "text" && opts.format != "json" {
		return nil, nil, fmt.Errorf("unsupported output format: %s", opts.format)
	}
	if fs.NArg() == 0 {
		return nil, nil, fmt.Errorf("at least one file path is required")
	}
	return opts, fs.Args(), nil
}

func extractFile(path string, opts *options, processor *pipeline.Processor, extractor *extract.Extractor) *ExtractionResult {
	start := time.Now()
	result := &ExtractionResult{FilePath: path}
	if abs, err := filepath.Abs(path); err == nil {
		result.FilePath = abs
	}

	var (
		doc *pipeline.Document
		err error
	)
	if opts.fromText {
		doc, err = documentFromText(result.FilePath, extractor)
	} else {
		doc, err = processor.ProcessFile(context.Background(), result.FilePath)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if !opts.showText {
		doc.Text = ""
	}
	result.Success = true
	result.Document = doc
	result.ExtractionTime = time.Since(start).Round(time.Millisecond).String()
	return result
}

// documentFromText runs extraction alone over a saved OCR text dump
func documentFromText(path string, extractor *extract.Extractor) (*pipeline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	res := extractor.Extract(text)
	return &pipeline.Document{
		Path:     path,
		Text:     text,
		Record:   res.Record,
		Products: res.Products,
		Gaps:     res.Gaps,
	}, nil
}

func outputResult(w io.Writer, result *ExtractionResult, opts *options) error {
	if opts.format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if !result.Success {
		_, err := fmt.Fprintf(w, "❌ %s: %s\n", result.FilePath, result.Error)
		return err
	}
	_, err := fmt.Fprintf(w, "%s(%s)\n\n", mcp.FormatDocument(result.Document, opts.showText), result.ExtractionTime)
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "PDF Extract Fields - preview the dispatch row for scanned order sheets")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_extract_fields [OPTIONS] <file> [file...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Nothing is written to the spreadsheet.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_extract_fields order.pdf")
	fmt.Fprintln(w, "  pdf_extract_fields --format json --show-text inbox/*.pdf")
	fmt.Fprintln(w, "  pdf_extract_fields --from-text --label-tolerance 2 ocr-dump.txt")
}
