package apperrors

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

type markerColors struct{}

func (markerColors) Yellow() string { return "[Y]" }
func (markerColors) Reset() string  { return "[R]" }

func TestHandleRunError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		duration time.Duration
		colors   ColorProvider
		wantCode int
		wantMsg  string
	}{
		{"no error", nil, 0, nil, ExitSuccess, ""},
		{"deadline", context.DeadlineExceeded, time.Second, markerColors{}, ExitErrorTimeout, "The execution limit was reached after [Y]1s[R]."},
		{"wrapped deadline", fmt.Errorf("sum: %w", context.DeadlineExceeded), 0, nil, ExitErrorTimeout, "The execution limit was reached."},
		{"timeout error", TimeoutError{Operation: "run", Limit: time.Second}, 0, nil, ExitErrorTimeout, "Timeout"},
		{"canceled", context.Canceled, 500 * time.Millisecond, markerColors{}, ExitErrorCanceled, "[Y]Status: Canceled after [Y]500ms[R].[R]"},
		{"config", NewConfigError("bad flag"), 0, nil, ExitErrorConfig, "Configuration error: bad flag"},
		{"invalid input", WrapError(NewInvalidInputError("numeric/f64/convolve", "empty kernel"), "size 10"), 0, nil, ExitErrorGeneric, "Invalid input for numeric/f64/convolve: empty kernel"},
		{"generic", fmt.Errorf("random error"), 0, nil, ExitErrorGeneric, "An unexpected error occurred: random error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			code := HandleRunError(tt.err, tt.duration, &out, tt.colors)
			if code != tt.wantCode {
				t.Errorf("HandleRunError() code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(out.String(), tt.wantMsg) {
				t.Errorf("HandleRunError() output = %q, want it to contain %q", out.String(), tt.wantMsg)
			}
		})
	}
}
