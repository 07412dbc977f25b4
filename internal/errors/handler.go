package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies terminal color codes to the error handler without
// importing the presentation packages.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (DefaultColorProvider) Yellow() string { return "" }
func (DefaultColorProvider) Reset() string  { return "" }

// HandleRunError prints a status line for err and returns the matching exit
// code: ExitErrorTimeout for deadlines, ExitErrorCanceled for cancellation,
// ExitErrorConfig for configuration errors and ExitErrorGeneric otherwise.
// A nil colors uses DefaultColorProvider.
func HandleRunError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var timeoutErr TimeoutError
	var cfgErr ConfigError
	var inputErr *InvalidInputError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &cfgErr):
		fmt.Fprintf(out, "Status: Configuration error: %v\n", err)
		return ExitErrorConfig
	case errors.As(err, &inputErr):
		fmt.Fprintf(out, "Status: Failure. Invalid input for %s: %s\n", inputErr.Operation, inputErr.Message)
		return ExitErrorGeneric
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}
