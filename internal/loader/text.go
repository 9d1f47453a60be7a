package loader

import (
	"os"
	"strings"

	"contractfill/constants"
)

// loadText reads a plain text file with line-ending normalization.
// Inner whitespace is preserved; extraction prompts tolerate it.
func (l *Loader) loadText(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Format: constants.TXT}, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return Result{
		Text:   strings.TrimSpace(text),
		Pages:  1,
		Format: constants.TXT,
		Method: "txt",
	}, nil
}
