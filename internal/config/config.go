package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/dispatch-ocr/internal/ocr"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Default values
	DefaultExcelPath      = "dispatch_master.xlsx"
	DefaultPattern        = "*.pdf"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultDPI            = 300
	DefaultScale          = 4
	DefaultLabelTolerance = 1
	DefaultTesseractPath  = "tesseract"
	DefaultPdftoppmPath   = "pdftoppm"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "DISPATCH"
)

// Config holds all configuration for a dispatch run
type Config struct {
	Mode string // "batch" or "stdio"

	// Inputs and outputs
	ExcelPath  string
	PDFPath    string
	Directory  string
	Pattern    string
	ArchiveDir string

	// Rendering
	MaxFileSize     int64
	DPI             int
	Scale           int
	PreferTextLayer bool
	PdftoppmPath    string

	// OCR
	OCREngine     string
	TesseractPath string
	Languages     []string
	PSMModes      []int

	// Extraction
	LabelTolerance int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	ConfigFile string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeBatch,
		ExcelPath:      DefaultExcelPath,
		Pattern:        DefaultPattern,
		MaxFileSize:    DefaultMaxFileSize,
		DPI:            DefaultDPI,
		Scale:          DefaultScale,
		PdftoppmPath:   DefaultPdftoppmPath,
		OCREngine:      ocr.EngineGosseract,
		TesseractPath:  DefaultTesseractPath,
		Languages:      []string{"eng"},
		PSMModes:       append([]int(nil), ocr.DefaultPSMModes...),
		LabelTolerance: DefaultLabelTolerance,
		Version:        "1.0.0",
		ServerName:     "dispatch-ocr",
		LogLevel:       DefaultLogLevel,
	}
}

// LoadFromFlags parses the process command line and returns a configuration
func LoadFromFlags() (*Config, error) {
	return LoadFromArgs(os.Args[1:])
}

// LoadFromArgs parses args with the global flag set and returns a configuration
func LoadFromArgs(args []string) (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := pflag.CommandLine.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(cfg)

	if cfg.Mode == ModeStdio && cfg.Directory == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Directory = wd
		}
	}

	// Expand paths if needed
	for _, p := range []*string{&cfg.Directory, &cfg.ArchiveDir} {
		if *p == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*p); err == nil {
			*p = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("excel", cfg.ExcelPath)
	viper.SetDefault("pdf", cfg.PDFPath)
	viper.SetDefault("dir", cfg.Directory)
	viper.SetDefault("pattern", cfg.Pattern)
	viper.SetDefault("archive", cfg.ArchiveDir)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("dpi", cfg.DPI)
	viper.SetDefault("scale", cfg.Scale)
	viper.SetDefault("text-layer", cfg.PreferTextLayer)
	viper.SetDefault("pdftoppm", cfg.PdftoppmPath)
	viper.SetDefault("ocr-engine", cfg.OCREngine)
	viper.SetDefault("tesseract", cfg.TesseractPath)
	viper.SetDefault("lang", cfg.Languages)
	viper.SetDefault("psm", cfg.PSMModes)
	viper.SetDefault("label-tolerance", cfg.LabelTolerance)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' processes PDFs once, 'stdio' serves MCP tools")
	pflag.String("excel", cfg.ExcelPath, "Dispatch spreadsheet to append to (created if missing)")
	pflag.String("pdf", cfg.PDFPath, "Single PDF order sheet to process")
	pflag.String("dir", cfg.Directory, "Directory of PDF order sheets to process")
	pflag.String("pattern", cfg.Pattern, "Glob pattern for PDFs in --dir")
	pflag.String("archive", cfg.ArchiveDir, "Move processed PDFs into this directory")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("dpi", cfg.DPI, "Resolution used when rasterising vector pages")
	pflag.Int("scale", cfg.Scale, "Upscale factor for embedded page scans (1-4)")
	pflag.Bool("text-layer", cfg.PreferTextLayer, "Use a page's native text layer instead of OCR when present")
	pflag.String("pdftoppm", cfg.PdftoppmPath, "Path to the pdftoppm binary (empty disables)")
	pflag.String("ocr-engine", cfg.OCREngine, "OCR backend: 'gosseract' or 'cli'")
	pflag.String("tesseract", cfg.TesseractPath, "Path to the tesseract binary (cli engine)")
	pflag.StringSlice("lang", cfg.Languages, "Tesseract languages")
	pflag.IntSlice("psm", cfg.PSMModes, "Tesseract page segmentation modes to try per page")
	pflag.Int("label-tolerance", cfg.LabelTolerance, "Max OCR edits per label word (0 = exact)")
	pflag.String("config", cfg.ConfigFile, "Optional YAML/TOML/JSON config file")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "excel", "pdf", "dir", "pattern", "archive", "loglevel",
		"maxfilesize", "dpi", "scale", "text-layer", "pdftoppm", "ocr-engine",
		"tesseract", "lang", "psm", "label-tolerance", "config",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDispatch OCR - append scanned PDF order sheets to the dispatch spreadsheet\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --pdf order.pdf                          # one sheet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir ./inbox --archive ./done           # a folder\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir ./inbox --pattern '9*.pdf'         # a subset\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir ./inbox               # MCP tools\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DISPATCH_EXCEL       Spreadsheet path\n")
		fmt.Fprintf(os.Stderr, "  DISPATCH_DIR         PDF directory\n")
		fmt.Fprintf(os.Stderr, "  DISPATCH_PATTERN     Glob pattern\n")
		fmt.Fprintf(os.Stderr, "  DISPATCH_ARCHIVE     Archive directory\n")
		fmt.Fprintf(os.Stderr, "  DISPATCH_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  DISPATCH_OCR_ENGINE  OCR backend\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.ExcelPath = viper.GetString("excel")
	cfg.PDFPath = viper.GetString("pdf")
	cfg.Directory = viper.GetString("dir")
	cfg.Pattern = viper.GetString("pattern")
	cfg.ArchiveDir = viper.GetString("archive")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.DPI = viper.GetInt("dpi")
	cfg.Scale = viper.GetInt("scale")
	cfg.PreferTextLayer = viper.GetBool("text-layer")
	cfg.PdftoppmPath = viper.GetString("pdftoppm")
	cfg.OCREngine = viper.GetString("ocr-engine")
	cfg.TesseractPath = viper.GetString("tesseract")
	cfg.Languages = viper.GetStringSlice("lang")
	cfg.PSMModes = viper.GetIntSlice("psm")
	cfg.LabelTolerance = viper.GetInt("label-tolerance")
	cfg.ConfigFile = viper.GetString("config")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.ExcelPath == "" {
		return errors.New("excel path cannot be empty")
	}
	if !strings.EqualFold(filepath.Ext(c.ExcelPath), ".xlsx") {
		return fmt.Errorf("excel path must end in .xlsx: %s", c.ExcelPath)
	}

	if c.Mode == ModeBatch && c.PDFPath == "" && c.Directory == "" {
		return errors.New("either --pdf or --dir must be set")
	}
	if c.Mode == ModeStdio && c.Directory == "" {
		return errors.New("PDF directory cannot be empty in stdio mode")
	}

	if c.Pattern == "" {
		return errors.New("pattern cannot be empty")
	}
	if _, err := filepath.Match(c.Pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
	}

	if c.Directory != "" {
		info, err := os.Stat(c.Directory)
		if err != nil {
			return fmt.Errorf("cannot access PDF directory %s: %w", c.Directory, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("not a directory: %s", c.Directory)
		}
	}

	// Create the archive directory if it doesn't exist
	if c.ArchiveDir != "" {
		if _, err := os.Stat(c.ArchiveDir); os.IsNotExist(err) {
			if err := os.MkdirAll(c.ArchiveDir, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create archive directory %s: %w", c.ArchiveDir, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access archive directory %s: %w", c.ArchiveDir, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.DPI < 72 || c.DPI > 1200 {
		return fmt.Errorf("dpi must be between 72 and 1200, got %d", c.DPI)
	}
	if c.Scale < 1 || c.Scale > 4 {
		return fmt.Errorf("scale must be between 1 and 4, got %d", c.Scale)
	}

	if c.OCREngine != ocr.EngineGosseract && c.OCREngine != ocr.EngineCLI {
		return fmt.Errorf("invalid OCR engine: %s (must be one of: gosseract, cli)", c.OCREngine)
	}
	if c.OCREngine == ocr.EngineCLI && c.TesseractPath == "" {
		return errors.New("tesseract path cannot be empty for the cli engine")
	}
	if len(c.Languages) == 0 {
		return errors.New("at least one OCR language is required")
	}
	if len(c.PSMModes) == 0 {
		return errors.New("at least one page segmentation mode is required")
	}
	for _, psm := range c.PSMModes {
		if psm < 0 || psm > 13 {
			return fmt.Errorf("page segmentation mode out of range: %d", psm)
		}
	}

	if c.LabelTolerance < 0 || c.LabelTolerance > 3 {
		return fmt.Errorf("label tolerance must be between 0 and 3, got %d", c.LabelTolerance)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsStdioMode returns true if the run serves MCP tools over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Excel: %s, PDF: %s, Dir: %s, Pattern: %s, Archive: %s, "+
		"Engine: %s, Lang: %v, PSM: %v, DPI: %d, Scale: %d, LabelTolerance: %d, LogLevel: %s}",
		c.Mode, c.ExcelPath, c.PDFPath, c.Directory, c.Pattern, c.ArchiveDir,
		c.OCREngine, c.Languages, c.PSMModes, c.DPI, c.Scale, c.LabelTolerance, c.LogLevel)
}
