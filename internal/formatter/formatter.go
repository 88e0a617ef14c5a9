package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Content is a scrape result that can be printed in every output format.
type Content interface {
	ToMarkdown() string
	ToHTML() string
}

// Result is the envelope written to stdout.
type Result struct {
	Success bool    `json:"success"`
	Data    Content `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Success wraps a scraped page or combined document.
func Success(data Content) Result {
	return Result{Success: true, Data: data}
}

// Failure wraps an error message.
func Failure(err error) Result {
	return Result{Error: strings.ToValidUTF8(err.Error(), "")}
}

// Format renders a result as json, markdown or html. Failures are always
// printed as JSON so callers can parse them.
func Format(res Result, format string) (string, error) {
	if !res.Success || res.Data == nil {
		format = "json"
	}

	switch format {
	case "json", "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(res); err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	case "markdown":
		return res.Data.ToMarkdown(), nil
	case "html":
		return res.Data.ToHTML(), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// Formats lists the accepted --format values.
func Formats() []string {
	return []string{"json", "markdown", "html"}
}
