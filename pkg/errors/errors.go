// Package errors provides structured error handling for polywallet.
// It defines sentinel errors, exit codes, and helpers for attaching
// details and suggestions to errors as they travel up to the CLI.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication or decryption failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or insufficient funds
)

// WalletError is the structured error type for polywallet.
type WalletError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *WalletError) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code so wrapped copies compare equal to sentinels.
func (e *WalletError) Is(target error) bool {
	var t *WalletError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &WalletError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &WalletError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrInsufficientFunds = &WalletError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient funds for transaction",
		ExitCode: ExitPermission,
	}

	// Registry errors.
	ErrChainNotSupported = &WalletError{
		Code:     "CHAIN_NOT_SUPPORTED",
		Message:  "unsupported chain type",
		ExitCode: ExitInput,
	}

	ErrNotConnected = &WalletError{
		Code:     "NOT_CONNECTED",
		Message:  "wallet not connected",
		ExitCode: ExitInput,
	}

	ErrConnectFailed = &WalletError{
		Code:     "CONNECT_FAILED",
		Message:  "wallet connection failed",
		ExitCode: ExitGeneral,
	}

	ErrConnectTimeout = &WalletError{
		Code:     "CONNECT_TIMEOUT",
		Message:  "wallet connection timed out",
		ExitCode: ExitGeneral,
	}

	ErrUnknownNetwork = &WalletError{
		Code:     "UNKNOWN_NETWORK",
		Message:  "unknown network",
		ExitCode: ExitInput,
	}

	// Key material errors.
	ErrKeyNotFound = &WalletError{
		Code:     "KEY_NOT_FOUND",
		Message:  "no stored key for chain",
		ExitCode: ExitNotFound,
	}

	ErrInvalidKey = &WalletError{
		Code:     "INVALID_KEY",
		Message:  "invalid private key",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &WalletError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &WalletError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong passphrase or corrupted file",
		ExitCode: ExitAuth,
	}

	// Chain errors.
	ErrInvalidAddress = &WalletError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrNetworkError = &WalletError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrTxRejected = &WalletError{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected by network",
		ExitCode: ExitGeneral,
	}

	ErrNoUTXOs = &WalletError{
		Code:     "NO_UTXOS",
		Message:  "no UTXOs available",
		ExitCode: ExitInput,
	}

	// Amount errors.
	ErrAmountRequired = &WalletError{
		Code:     "AMOUNT_REQUIRED",
		Message:  "amount is required",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &WalletError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	// Config errors.
	ErrConfigNotFound = &WalletError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &WalletError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &WalletError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	ErrCacheNotFound = &WalletError{
		Code:     "CACHE_NOT_FOUND",
		Message:  "no cached data available",
		ExitCode: ExitNotFound,
	}

	ErrTransactionNotFound = &WalletError{
		Code:     "TRANSACTION_NOT_FOUND",
		Message:  "transaction not found",
		ExitCode: ExitNotFound,
	}
)

// New creates a new WalletError with the given code and message.
func New(code, message string) *WalletError {
	return &WalletError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    fmt.Sprintf("%s: %s", msg, we.Message),
			Details:    we.Details,
			Suggestion: we.Suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause attaches an underlying cause to a sentinel, preserving its code.
func WithCause(sentinel *WalletError, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &WalletError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithDetails adds details to an error. Existing details are merged.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		merged := make(map[string]string, len(we.Details)+len(details))
		for k, v := range we.Details {
			merged[k] = v
		}
		for k, v := range details {
			merged[k] = v
		}
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    merged,
			Suggestion: we.Suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    we.Details,
			Suggestion: suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var we *WalletError
	if errors.As(err, &we) {
		return we.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code
	}
	return "GENERAL_ERROR"
}

// Suggestion returns the suggestion attached to err, if any.
func Suggestion(err error) string {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Suggestion
	}
	return ""
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
