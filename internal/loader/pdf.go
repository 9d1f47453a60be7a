package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"contractfill/constants"
)

// loadPDF tries the text layer first; when it is too sparse the file is
// treated as scanned and rasterized for OCR.
func (l *Loader) loadPDF(ctx context.Context, path string) (Result, error) {
	text, pages, err := l.pdfTextLayer(path)
	if err == nil && len(text) >= l.cfg.MinPDFTextChars {
		return Result{
			Text:   text,
			Pages:  pages,
			Format: constants.PDF,
			Method: "pdf-text",
		}, nil
	}

	var warns []string
	if err != nil {
		warns = append(warns, fmt.Sprintf("pdf text layer: %v", err))
	} else {
		warns = append(warns, fmt.Sprintf("pdf text layer too sparse (%d chars), falling back to ocr", len(text)))
	}

	ocrText, ocrPages, ocrWarns, err := l.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		return Result{Format: constants.PDF, Warnings: warns}, err
	}
	return Result{
		Text:       ocrText,
		Pages:      ocrPages,
		Format:     constants.PDF,
		Method:     "pdf-ocr",
		Warnings:   warns,
		Confidence: heuristicConfidence(ocrText),
	}, nil
}

// pdfTextLayer extracts the embedded text layer page by page via pdfcpu.
func (l *Loader) pdfTextLayer(path string) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return "", 0, fmt.Errorf("pdfcpu read: %w", err)
	}

	var all strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if l.cfg.MaxPages > 0 && pageNr > l.cfg.MaxPages {
			break
		}
		pageText := extractPageText(pctx, pageNr)
		if pageText == "" {
			continue
		}
		if all.Len() > 0 {
			all.WriteString("\n\f\n") // keep a clear page break marker
		}
		all.WriteString(pageText)
	}
	return all.String(), pctx.PageCount, nil
}

// pdfToOCR rasterizes with pdftoppm and OCRs each page with tesseract.
func (l *Loader) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "cf-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			l.logger.Warn("loader.tempdir_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := l.runner.Run(ctx, l.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", l.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if l.cfg.MaxPages > 0 && len(matches) > l.cfg.MaxPages {
		matches = matches[:l.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := l.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	return b.String(), len(matches), warns, nil
}

// extractPageText extracts text from a single PDF page via the pdfcpu content stream.
func extractPageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractTextFromStream parses PDF content stream operators for text.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	lines := bytes.Split(data, []byte{'\n'})
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// Tj / TJ operators carry string literals.
		if bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteString(text)
				}
			}
		}

		// ' operator (move to next line and show text): (text) '
		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		}

		// Td/TD text positioning.
		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}

		// T* moves to start of next line.
		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanPDFText normalises whitespace in extracted PDF text.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
