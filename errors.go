// errors.go: structured error taxonomy for the warden cache engine
//
// All errors that cross an action boundary are constructed here using
// go-errors, giving every failure a stable code, optional structured
// context, and a retryability flag instead of a bare string.
package warden

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes. One per externally-visible failure mode.
const (
	ErrCodeNoCache           errors.ErrorCode = "WARDEN_NO_CACHE"
	ErrCodeNotStarted        errors.ErrorCode = "WARDEN_NOT_STARTED"
	ErrCodeInvalidName       errors.ErrorCode = "WARDEN_INVALID_NAME"
	ErrCodeInvalidOption     errors.ErrorCode = "WARDEN_INVALID_OPTION"
	ErrCodeInvalidCommand    errors.ErrorCode = "WARDEN_INVALID_COMMAND"
	ErrCodeInvalidExpiration errors.ErrorCode = "WARDEN_INVALID_EXPIRATION"
	ErrCodeInvalidFallback   errors.ErrorCode = "WARDEN_INVALID_FALLBACK"
	ErrCodeInvalidHook       errors.ErrorCode = "WARDEN_INVALID_HOOK"
	ErrCodeInvalidLimit      errors.ErrorCode = "WARDEN_INVALID_LIMIT"
	ErrCodeInvalidWarmer     errors.ErrorCode = "WARDEN_INVALID_WARMER"
	ErrCodeInvalidMatch      errors.ErrorCode = "WARDEN_INVALID_MATCH"
	ErrCodeJanitorDisabled   errors.ErrorCode = "WARDEN_JANITOR_DISABLED"
	ErrCodeStatsDisabled     errors.ErrorCode = "WARDEN_STATS_DISABLED"
	ErrCodeLocked            errors.ErrorCode = "WARDEN_LOCKED"
	ErrCodeNonNumericValue   errors.ErrorCode = "WARDEN_NON_NUMERIC_VALUE"
	ErrCodeUnreachableFile   errors.ErrorCode = "WARDEN_UNREACHABLE_FILE"
	ErrCodeKeyNotFound       errors.ErrorCode = "WARDEN_KEY_NOT_FOUND"
	ErrCodeEmptyKey          errors.ErrorCode = "WARDEN_EMPTY_KEY"
	ErrCodeLoaderFailed      errors.ErrorCode = "WARDEN_LOADER_FAILED"
	ErrCodePanicRecovered    errors.ErrorCode = "WARDEN_PANIC_RECOVERED"
	ErrCodeInternalError     errors.ErrorCode = "WARDEN_INTERNAL_ERROR"
	ErrCodeCorruptedData     errors.ErrorCode = "WARDEN_CORRUPTED_DATA"
)

const (
	msgNoCache           = "no cache registered under this name"
	msgNotStarted        = "engine has not been started"
	msgInvalidName       = "cache name is invalid"
	msgInvalidOption     = "cache option record is invalid"
	msgInvalidCommand    = "command record is invalid"
	msgInvalidExpiration = "expiration option record is invalid"
	msgInvalidFallback   = "fallback option record is invalid"
	msgInvalidHook       = "hook descriptor is invalid"
	msgInvalidLimit      = "limit option record is invalid"
	msgInvalidWarmer     = "warmer option record is invalid"
	msgInvalidMatch      = "match specification is invalid"
	msgJanitorDisabled   = "janitor is disabled for this cache"
	msgStatsDisabled     = "statistics are disabled for this cache"
	msgLocked            = "key is held by an active transaction"
	msgNonNumericValue   = "value is not numeric"
	msgUnreachableFile   = "file path is not reachable"
	msgKeyNotFound       = "key not found in cache"
	msgEmptyKey          = "key cannot be empty"
	msgLoaderFailed      = "fallback loader failed"
	msgPanicRecovered    = "panic recovered during action execution"
	msgInternalError     = "internal engine error"
	msgCorruptedData     = "corrupted snapshot data"
)

func NewErrNoCache(name string) error {
	return errors.NewWithField(ErrCodeNoCache, msgNoCache, "cache", name)
}

func NewErrNotStarted(operation string) error {
	return errors.NewWithField(ErrCodeNotStarted, msgNotStarted, "operation", operation)
}

func NewErrInvalidName(name string) error {
	return errors.NewWithField(ErrCodeInvalidName, msgInvalidName, "name", name)
}

func NewErrInvalidOption(field string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidOption, msgInvalidOption, map[string]interface{}{
		"field":  field,
		"reason": reason,
	})
}

func NewErrInvalidCommand(name string) error {
	return errors.NewWithField(ErrCodeInvalidCommand, msgInvalidCommand, "command", name)
}

func NewErrInvalidExpiration(reason string) error {
	return errors.NewWithField(ErrCodeInvalidExpiration, msgInvalidExpiration, "reason", reason)
}

func NewErrInvalidFallback(reason string) error {
	return errors.NewWithField(ErrCodeInvalidFallback, msgInvalidFallback, "reason", reason)
}

func NewErrInvalidHook(module string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidHook, msgInvalidHook, map[string]interface{}{
		"module": module,
		"reason": reason,
	})
}

func NewErrInvalidLimit(reason string) error {
	return errors.NewWithField(ErrCodeInvalidLimit, msgInvalidLimit, "reason", reason)
}

func NewErrInvalidWarmer(module string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidWarmer, msgInvalidWarmer, map[string]interface{}{
		"module": module,
		"reason": reason,
	})
}

func NewErrInvalidMatch(reason string) error {
	return errors.NewWithField(ErrCodeInvalidMatch, msgInvalidMatch, "reason", reason)
}

func NewErrJanitorDisabled(cache string) error {
	return errors.NewWithField(ErrCodeJanitorDisabled, msgJanitorDisabled, "cache", cache)
}

func NewErrStatsDisabled(cache string) error {
	return errors.NewWithField(ErrCodeStatsDisabled, msgStatsDisabled, "cache", cache)
}

func NewErrLocked(cache, key string) error {
	return errors.NewWithContext(ErrCodeLocked, msgLocked, map[string]interface{}{
		"cache": cache,
		"key":   key,
	}).AsRetryable()
}

func NewErrNonNumericValue(key string) error {
	return errors.NewWithField(ErrCodeNonNumericValue, msgNonNumericValue, "key", key)
}

func NewErrUnreachableFile(path string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeUnreachableFile, msgUnreachableFile).
			WithContext("path", path)
	}
	return errors.NewWithField(ErrCodeUnreachableFile, msgUnreachableFile, "path", path)
}

func NewErrKeyNotFound(key string) error {
	return errors.NewWithField(ErrCodeKeyNotFound, msgKeyNotFound, "key", key)
}

func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeEmptyKey, msgEmptyKey, "operation", operation)
}

func NewErrLoaderFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeLoaderFailed, msgLoaderFailed).
		WithContext("key", key).
		AsRetryable()
}

func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

func NewErrCorruptedData(path string, details string) error {
	return errors.NewWithContext(ErrCodeCorruptedData, msgCorruptedData, map[string]interface{}{
		"path":    path,
		"details": details,
	})
}

// IsLocked reports whether err is a lock-contention error.
func IsLocked(err error) bool { return errors.HasCode(err, ErrCodeLocked) }

// IsNotFound reports whether err is a key-not-found error.
func IsNotFound(err error) bool { return errors.HasCode(err, ErrCodeKeyNotFound) }

// IsRetryable reports whether err declares itself retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the structured error code from err, if any.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context map from err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var wErr *errors.Error
	if goerrors.As(err, &wErr) {
		return wErr.Context
	}
	return nil
}
