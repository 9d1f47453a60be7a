package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"contractfill/internal/common"
	"contractfill/internal/llm"
)

// ExtractFields implements llm.FieldExtractor over chat/completions with a
// JSON response format. The schema is both embedded in the prompt and used
// to validate the response locally before it is parsed.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (map[string]llm.ExtractedField, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.RawText),
		"schema_fields", req.Schema.Len(),
		"prep_confidence", req.PrepConfidence,
	)

	fieldSchema := llm.BuildFieldJSONSchema(req.Schema)
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(fieldSchema)},
			{"role": "user", "content": user},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("%w: decode completion: %v", common.ErrExtractionParse, err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("%w: no choices in completion", common.ErrExtractionParse)
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	cleaned, adjusted, err := llm.NormalizeAndSanitize(content, req.Schema, c.log)
	if err != nil {
		c.log.Error("llm.extract.sanitize_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, content, fmt.Errorf("%w: %v", common.ErrExtractionParse, err)
	}
	if len(adjusted) > 0 {
		c.log.Warn("llm.extract.sanitize_applied", "req_id", rid, "adjusted", adjusted)
	}

	if err := llm.ValidateJSONAgainstSchema(fieldSchema, cleaned); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, cleaned, fmt.Errorf("%w: %v", common.ErrExtractionParse, err)
	}

	fields, err := llm.ParseResponse(cleaned, req.Schema)
	if err != nil {
		return nil, cleaned, err
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, cleaned, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", common.ErrExtractionTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionProvider, err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("llm.http.response_body_close_error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: read body: %v", common.ErrExtractionProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrExtractionProvider, resp.StatusCode, truncate(buf.String(), 2048))
	}
	return buf.Bytes(), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
