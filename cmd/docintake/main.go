package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/doc-intake/constants"
	"github.com/joseph-ayodele/doc-intake/internal/assemble"
	"github.com/joseph-ayodele/doc-intake/internal/classify"
	"github.com/joseph-ayodele/doc-intake/internal/common"
	"github.com/joseph-ayodele/doc-intake/internal/corpus"
	"github.com/joseph-ayodele/doc-intake/internal/export"
	"github.com/joseph-ayodele/doc-intake/internal/ocr"
	"github.com/joseph-ayodele/doc-intake/internal/pipeline"
	"github.com/joseph-ayodele/doc-intake/internal/rasterize"
	"github.com/joseph-ayodele/doc-intake/internal/schema"
	"github.com/joseph-ayodele/doc-intake/internal/session"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out     = flag.String("out", "classification_result.json", "output JSON file path")
		xlsxOut = flag.String("xlsx", "", "optional XLSX field summary output path")
		sessID  = flag.String("session", "", "named session for the durable record store (requires SESSION_STORE_PATH)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		printError("Usage: docintake [flags] file.pdf [file.pdf ...]\n")
		os.Exit(2)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Configuration error: %s\n", common.Describe(err))
		os.Exit(1)
	}

	ctx := context.Background()

	// Read the uploaded files
	files, err := readFiles(flag.Args())
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// Schema registry: malformed schema is fatal to startup.
	registry, err := schema.Load()
	if err != nil {
		logger.Error("schema load failed", "error", err)
		os.Exit(1)
	}
	logger.Info("schema loaded", "fields", registry.Len())

	// Session store: durable sqlite when a named session is given, else in-memory.
	var store session.Store
	if *sessID != "" {
		if cfg.Session.StorePath == "" {
			printError("Error: --session requires SESSION_STORE_PATH\n")
			os.Exit(1)
		}
		store, err = session.OpenSQLiteStore(ctx, cfg.Session.StorePath, *sessID)
		if err != nil {
			logger.Error("open session store", "error", err)
			os.Exit(1)
		}
	} else {
		store = session.NewMemoryStore()
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("close session store", "error", cerr)
		}
	}()

	sess := session.New(store, logger)
	if *sessID != "" {
		sess.ID = *sessID
	}
	sess.SetCredentials(cfg.OCR.APIKey, cfg.Extract.APIKey)

	// Wire the pipeline
	raster := rasterize.New(rasterize.Config{DPI: cfg.Rasterize.DPI, JPEGQuality: cfg.Rasterize.JPEGQuality}, logger)
	reader := ocr.NewClient(ocr.Config{BaseURL: cfg.OCR.BaseURL, Model: cfg.OCR.Model, Timeout: cfg.OCR.Timeout}, logger)
	assembler := assemble.NewAssembler(raster, reader, logger)
	aggregator := corpus.NewAggregator(assembler, logger)
	extractor := classify.NewClient(classify.Config{
		BaseURL:      cfg.Extract.BaseURL,
		Model:        cfg.Extract.Model,
		Timeout:      cfg.Extract.Timeout,
		MaxTextBytes: cfg.Extract.MaxTextBytes,
	}, logger)

	processor := pipeline.NewProcessor(logger, aggregator, extractor, registry)

	res, rec, err := processor.Run(ctx, sess, files)
	for _, failure := range res.Failures() {
		printError("%s: %s\n", failure.Filename, common.Describe(failure.Err))
	}
	if err != nil {
		printError("Classification failed: %s\n", common.Describe(err))
		os.Exit(1)
	}
	if rec == nil {
		printError("Classification not offered: %d of %d files completed\n", res.Completed, res.Total)
		os.Exit(1)
	}

	exporter := export.NewService(logger)
	jsonBytes, err := exporter.JSON(rec)
	if err != nil {
		logger.Error("export json", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, jsonBytes, 0644); err != nil {
		logger.Error("write output file", "error", err)
		os.Exit(1)
	}

	if *xlsxOut != "" {
		xlsxBytes, err := exporter.XLSX(rec, registry)
		if err != nil {
			logger.Error("export xlsx", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, xlsxBytes, 0644); err != nil {
			logger.Error("write xlsx file", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Intake complete!\n")
	fmt.Printf("- Files completed: %d of %d\n", res.Completed, res.Total)
	fmt.Printf("- Fields extracted: %d\n", len(rec))
	fmt.Printf("- Output: %s\n", *out)
	if *xlsxOut != "" {
		fmt.Printf("- XLSX summary: %s\n", *xlsxOut)
	}
}

// readFiles loads the PDF arguments into uploaded files, keyed by base name.
func readFiles(paths []string) ([]session.UploadedFile, error) {
	files := make([]session.UploadedFile, 0, len(paths))
	for _, path := range paths {
		if !constants.IsAllowedExt(filepath.Ext(path)) {
			return nil, fmt.Errorf("unsupported file type: %s (PDF only)", path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, session.UploadedFile{
			Filename: filepath.Base(path),
			Content:  content,
		})
	}
	return files, nil
}
