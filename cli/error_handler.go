package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/widgetdeck/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to out
func NewErrorHandler(verbose bool, out io.Writer) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints a message based on the error code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	var e *errors.Error
	errors.As(err, &e)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "❌ Configuration not found: %v\n", e.Details["path"])

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.Out, "❌ %s\n", e.Message)
		fmt.Fprintf(h.Out, "Check widgetdeck.yml, or run 'widgetdeck config schema' for the accepted fields.\n")

	case errors.ErrCodeStorageUnavailable:
		fmt.Fprintf(h.Out, "❌ Storage backend %v is not reachable: %v\n", e.Details["backend"], e.Cause)

	case errors.ErrCodeStateDecode, errors.ErrCodeStateMigration, errors.ErrCodeUnsupportedVersion:
		fmt.Fprintf(h.Out, "❌ Persisted state cannot be used: %v\n", err)
		fmt.Fprintf(h.Out, "Inspect it with 'widgetdeck state show --raw' or reset it with 'widgetdeck state clear'.\n")

	case errors.ErrCodeNotFound:
		fmt.Fprintf(h.Out, "❌ %s\n", e.Message)

	default:
		fmt.Fprintf(h.Out, "❌ Error: %v\n", err)
	}

	if h.Verbose && e != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", e.ToJSON())
	}
	return err
}
