// Package loader converts input documents (PDF, DOCX, TXT, HTML, images)
// into plain text. Image-based sources go through external OCR; everything
// else is pure format-to-text conversion with no business logic.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"contractfill/constants"
	"contractfill/internal/common"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	MaxFileSize   int64  // bytes, default 100 MB

	// MinPDFTextChars is the text-layer size below which a PDF is treated
	// as scanned and sent through OCR instead. Default 64.
	MinPDFTextChars int
}

// Result is the outcome of loading one document.
type Result struct {
	Text       string
	Pages      int
	Format     constants.DocFormat
	Method     string // "pdf-text" | "pdf-ocr" | "docx" | "txt" | "html" | "image-ocr"
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // OCR confidence 0..1; 0 for non-OCR methods
}

type Loader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 100 * 1024 * 1024
	}
	if cfg.MinPDFTextChars <= 0 {
		cfg.MinPDFTextChars = 64
	}
	return &Loader{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Load picks a strategy based on file extension.
func (l *Loader) Load(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > l.cfg.MaxFileSize {
		return Result{}, fmt.Errorf("%w: %s is %d bytes (max %d)",
			common.ErrUnsupportedDocument, path, info.Size(), l.cfg.MaxFileSize)
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	format, ok := constants.MapExtToFormat(ext)
	if !ok {
		l.logger.Error("loader.unsupported_extension", "path", path, "ext", ext)
		return Result{}, fmt.Errorf("%w: extension %q", common.ErrUnsupportedDocument, ext)
	}
	l.logger.Debug("loader.start", "path", path, "format", format)

	var res Result
	switch format {
	case constants.PDF:
		res, err = l.loadPDF(ctx, path)
	case constants.DOCX:
		res, err = l.loadDocx(path)
	case constants.TXT:
		res, err = l.loadText(path)
	case constants.HTML:
		res, err = l.loadHTML(path)
	case constants.IMAGE:
		res, err = l.loadImage(ctx, path)
	}
	res.Duration = time.Since(start)
	if err != nil {
		l.logger.Error("loader.failed", "path", path, "format", format, "error", err)
		return res, err
	}

	l.logger.Info("loader.ok",
		"path", path,
		"format", res.Format,
		"method", res.Method,
		"pages", res.Pages,
		"text_bytes", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// SupportedExtensions returns the extensions Load accepts, without dots.
func SupportedExtensions() []string {
	return []string{"pdf", "docx", "txt", "html", "htm", "png", "jpg", "jpeg"}
}
