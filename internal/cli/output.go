package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Run or scenario failure (invalid plan, failed scenarios, etc.)
	ExitCommandError = 2 // Command error (unreadable files, database errors, missing ledger, etc.)
)

// Error codes reported in the JSON envelope.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Input file unreadable
	ErrCodeStore       = "E003" // Database error
	ErrCodeInvalidPlan = "E004" // Plan rejected
	ErrCodeNotFound    = "E005" // Ledger or run not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeTestFailed  = "E008" // One or more scenarios failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	ErrCode string // Envelope error code, ErrCodeGeneric when empty
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command already wrote the failure, so
	// Execute only sets the exit code.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// withErrCode sets the envelope error code.
func (e *ExitError) withErrCode(code string) *ExitError {
	e.ErrCode = code
	return e
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Warnings in text mode (defaults to Writer)
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status   string    `json:"status"`             // "ok" or "error"
	Data     any       `json:"data,omitempty"`     // success payload
	Error    *CLIError `json:"error,omitempty"`    // error details
	Warnings []string  `json:"warnings,omitempty"` // conditions the operator should review
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Emit writes a successful result. In JSON mode data is wrapped in the
// envelope; in text mode text renders it and warnings go to ErrWriter.
func (f *OutputFormatter) Emit(data any, warnings []string, text func(w io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data, Warnings: warnings})
	}

	text(f.Writer)
	for _, w := range warnings {
		fmt.Fprintf(f.errWriter(), "warning: %s\n", w)
	}
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.errWriter(), "Error [%s]: %s\n", code, message)
	if details != nil {
		fmt.Fprintf(f.errWriter(), "Details: %v\n", details)
	}
	return nil
}

// Fail reports err in the configured format. ExitErrors keep their envelope
// code; anything else is reported as ErrCodeGeneric.
func (f *OutputFormatter) Fail(err error) {
	code := ErrCodeGeneric
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		code = exitErr.ErrCode
	}
	_ = f.Error(code, err.Error(), nil)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
