package tui

import (
	"encoding/json"
	"fmt"
	"io"

	gserrors "github.com/mrz1836/goalsync/internal/errors"
)

// JSONOutput provides structured JSON output for scripts and CI.
// Every message is one JSON object per line.
type JSONOutput struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONOutput creates a new JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{
		w:       w,
		encoder: json.NewEncoder(w),
	}
}

type jsonMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type jsonTable struct {
	Type    string     `json:"type"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Success outputs {"type": "success", "message": "..."}.
func (o *JSONOutput) Success(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: "success", Message: msg})
}

// Error outputs the operator message, the raw error and the suggested action.
func (o *JSONOutput) Error(err error) {
	msg, action := gserrors.Actionable(err)
	details := ""
	if msg != err.Error() {
		details = err.Error()
	}
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonError{
		Type:       "error",
		Message:    msg,
		Details:    details,
		Suggestion: action,
	})
}

// Warning outputs {"type": "warning", "message": "..."}.
func (o *JSONOutput) Warning(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: "warning", Message: msg})
}

// Info outputs {"type": "info", "message": "..."}.
func (o *JSONOutput) Info(msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: "info", Message: msg})
}

// Table outputs the rows as one JSON object.
func (o *JSONOutput) Table(headers []string, rows [][]string) {
	if rows == nil {
		rows = [][]string{}
	}
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonTable{Type: "table", Headers: headers, Rows: rows})
}

// JSON outputs a value as formatted JSON.
func (o *JSONOutput) JSON(v any) error {
	encoder := json.NewEncoder(o.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

var _ Output = (*JSONOutput)(nil)
