package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"contractfill/constants"
)

const maxPromptChars = 12000

// BuildSystemPrompt composes the system message: the role, per-field
// descriptions derived from the schema, and strict formatting rules.
func BuildSystemPrompt(req ExtractRequest) string {
	var fieldLines []string
	for i, f := range req.Schema.Fields() {
		line := fmt.Sprintf("%d. %s (%s", i+1, f.Name, f.Type)
		if f.Required {
			line += ", required"
		}
		line += "): " + typeGuidance(f.Type)
		if len(f.AllowedValues) > 0 {
			line += " Must be exactly one of: " + strings.Join(f.AllowedValues, ", ") + "."
		}
		fieldLines = append(fieldLines, line)
	}

	parts := []string{
		"You are a contract data extraction agent. Extract the following fields from the provided document and return ONLY JSON that matches the provided JSON Schema.",
		"Fields to extract:\n" + strings.Join(fieldLines, "\n"),
		"Extract real values only; never return placeholder text such as {client_name}.",
		"If a field is not found in the document, omit it. Never output null.",
		"Optionally include a 'confidence' object mapping field names you are unsure about to a 0..1 score.",
	}
	return strings.Join(parts, "\n\n")
}

// BuildUserPrompt packages the document text plus a short provenance hint.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if hint := strings.TrimSpace(req.DocumentHint); hint != "" {
		b.WriteString("Source: ")
		b.WriteString(hint)
		b.WriteString("\n")
	}
	if req.PrepConfidence > 0 {
		b.WriteString(fmt.Sprintf("Note: the text below came from OCR (confidence %.2f); tolerate minor character noise.\n", req.PrepConfidence))
	}
	b.WriteString("\nDocument content:\n")
	text := strings.TrimSpace(req.RawText)
	if len(text) > maxPromptChars {
		b.WriteString(truncateRunes(text, maxPromptChars))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func typeGuidance(t constants.FieldType) string {
	switch t {
	case constants.FieldDate:
		return "A calendar date. Use the YYYY-MM-DD format."
	case constants.FieldCurrency:
		return "A monetary amount. Keep it as written in the document, including any currency symbol."
	case constants.FieldNumber:
		return "A numeric value. Return digits only, no units."
	case constants.FieldBoolean:
		return "Whether it applies. Return \"true\" or \"false\"."
	default:
		return "Free text exactly as found in the document."
	}
}
