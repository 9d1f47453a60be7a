package loader

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"contractfill/constants"
)

var (
	reBoxNoise = regexp.MustCompile(`[|_]{3,}`)
	reDate     = regexp.MustCompile(`\b20\d{2}[-/.]\d{1,2}[-/.]\d{1,2}\b|\b\d{1,2}[-/.]\d{1,2}[-/.]20\d{2}\b`)
	reAmount   = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
)

func (l *Loader) loadImage(ctx context.Context, path string) (Result, error) {
	txt, warns, err := l.tesseractOCR(ctx, path)
	if err != nil {
		return Result{Format: constants.IMAGE, Warnings: warns}, err
	}
	txt = strings.TrimSpace(txt)

	return Result{
		Text:       txt,
		Pages:      1,
		Format:     constants.IMAGE,
		Method:     "image-ocr",
		Warnings:   warns,
		Confidence: heuristicConfidence(txt),
	}, nil
}

func (l *Loader) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", l.cfg.TesseractLang}
	out, errb, err := l.runner.Run(ctx, l.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

// heuristicConfidence scores OCR output on cheap structural signals:
// enough text, a plausible word-length distribution, dates and amounts.
func heuristicConfidence(text string) float32 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	var conf float32 = 0.3

	words := strings.Fields(text)
	if len(words) >= 20 {
		conf += 0.2
	}

	wordlike := 0
	for _, w := range words {
		if n := len(w); n >= 2 && n <= 20 {
			wordlike++
		}
	}
	if len(words) > 0 && float32(wordlike)/float32(len(words)) > 0.7 {
		conf += 0.2
	}

	if reDate.MatchString(text) {
		conf += 0.15
	}
	if reAmount.MatchString(text) {
		conf += 0.15
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
