package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dwikikusuma/quickcart/internal/storefront"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // backend refused or failed the request
	ExitCommandError = 2 // bad arguments or local state
)

// Error codes in JSON output.
const (
	ErrCodeGeneric    = "E000"
	ErrCodeNetwork    = "E001"
	ErrCodeAuth       = "E002"
	ErrCodeValidation = "E003"
	ErrCodeNotFound   = "E004"
	ErrCodeServer     = "E005"
	ErrCodeStream     = "E006"
	ErrCodeUsage      = "E007"
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Emit writes data as JSON, or calls text for human output.
func (f *OutputFormatter) Emit(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Fail reports err in the configured format and returns it as an
// ExitError.
func (f *OutputFormatter) Fail(err error) error {
	code, exit, msg := classify(err)
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: msg},
		})
	} else {
		fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, msg)
		if f.Verbose {
			fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", err)
		}
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return WrapExitError(exit, msg, err)
}

func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// classify picks the error code, exit code and user-facing message.
func classify(err error) (string, int, string) {
	var (
		exitErr  *ExitError
		initErr  *storefront.InitError
		alert    *storefront.Alert
		statusEr *apiclient.StatusError
	)
	switch {
	case errors.As(err, &exitErr) && exitErr.Code == ExitCommandError:
		return ErrCodeUsage, ExitCommandError, exitErr.Error()
	case errors.Is(err, storefront.ErrLoggedOut):
		return ErrCodeAuth, ExitFailure, storefront.ErrLoggedOut.Error()
	case errors.Is(err, storefront.ErrNotLoggedIn):
		return ErrCodeAuth, ExitFailure, "not logged in: run 'quickcart login <username>' first"
	case errors.As(err, &initErr):
		return codeOf(err), ExitFailure, initErr.Message
	case errors.As(err, &alert):
		return codeOf(err), ExitFailure, alert.Message
	case errors.Is(err, storefront.ErrStreamEnded):
		return ErrCodeStream, ExitFailure, err.Error()
	case errors.As(err, &statusEr):
		return codeOf(err), ExitFailure, apiclient.MessageOf(err)
	case errors.Is(err, apiclient.ErrNetwork):
		return ErrCodeNetwork, ExitFailure, "cannot reach the backend"
	default:
		return codeOf(err), GetExitCode(err), err.Error()
	}
}

func codeOf(err error) string {
	switch {
	case errors.Is(err, apiclient.ErrNetwork):
		return ErrCodeNetwork
	case errors.Is(err, apiclient.ErrAuth):
		return ErrCodeAuth
	case errors.Is(err, apiclient.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, apiclient.ErrValidation):
		return ErrCodeValidation
	case errors.Is(err, apiclient.ErrServer):
		return ErrCodeServer
	default:
		return ErrCodeGeneric
	}
}
