package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/ark/errors"
)

// ErrorHandler prints user-friendly messages for coded errors.
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates an ErrorHandler writing to out.
func NewErrorHandler(verbose bool, out io.Writer) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose, Out: out}
}

// Handle prints err and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeSessionNotFound:
		if arkErr, ok := err.(*errors.ArkError); ok {
			fmt.Fprintf(h.Out, "❌ Session '%v' is not in the registry\n", arkErr.Details["session_id"])
		}
		fmt.Fprintf(h.Out, "Run 'ark status' to list active sessions.\n")

	case errors.ErrCodeInvalidInput:
		fmt.Fprintf(h.Out, "❌ %s\n", messageOf(err))

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "❌ Invalid configuration: %v\n", err)
		fmt.Fprintf(h.Out, "Run 'ark config schema' to see the expected format.\n")

	default:
		fmt.Fprintf(h.Out, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		if arkErr, ok := err.(*errors.ArkError); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", arkErr.ToJSON())
		}
	}
	return err
}

func messageOf(err error) string {
	if arkErr, ok := err.(*errors.ArkError); ok {
		return arkErr.Message
	}
	return err.Error()
}
