package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// NewErrorDetail flattens err into its JSON shape.
func NewErrorDetail(err error) ErrorDetail {
	var we *walleterr.WalletError
	if errors.As(err, &we) {
		msg := we.Message
		if we.Cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, we.Cause)
		}
		return ErrorDetail{
			Code:       we.Code,
			Message:    msg,
			Details:    we.Details,
			Suggestion: we.Suggestion,
			ExitCode:   we.ExitCode,
		}
	}
	return ErrorDetail{
		Code:     walleterr.ErrGeneral.Code,
		Message:  err.Error(),
		ExitCode: walleterr.ExitGeneral,
	}
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}
	if format == FormatJSON {
		return WriteJSON(w, ErrorOutput{Error: NewErrorDetail(err)})
	}
	return formatErrorText(w, err)
}

func formatErrorText(w io.Writer, err error) error {
	detail := NewErrorDetail(err)

	var sb strings.Builder
	sb.WriteString(errorColor.Sprint("Error:") + " " + detail.Message + "\n")

	if len(detail.Details) > 0 {
		keys := make([]string, 0, len(detail.Details))
		for k := range detail.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, detail.Details[k]))
		}
	}

	if detail.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", detail.Suggestion))
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return WriteJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
