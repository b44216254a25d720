package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the account was advanced by another writer since it was read.
var ErrConflict = errors.New("concurrent update conflict")

// Ledger specific kinds. The input kinds wrap ErrValidation so generic callers can still
// treat them as bad input.
var (
	ErrInvalidAmount          = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrInvalidDescription     = fmt.Errorf("%w: description is required", ErrValidation)
	ErrInvalidCreditLimit     = fmt.Errorf("%w: credit limit must not be negative", ErrValidation)
	ErrAccountInactive        = errors.New("account is inactive")
	ErrCreditLimitExceeded    = errors.New("credit limit exceeded")
	ErrDuplicateAccount       = fmt.Errorf("%w: owner already has an account", ErrDuplicate)
	ErrHasActivity            = errors.New("account has committed movements")
	ErrConcurrentUpdateFailed = fmt.Errorf("%w: retries exhausted", ErrConflict)
)

// AppError wraps an infrastructure failure with a status code and a safe message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. err may be nil.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Kind names surfaced verbatim to callers.
const (
	KindInvalidAmount          = "INVALID_AMOUNT"
	KindInvalidDescription     = "INVALID_DESCRIPTION"
	KindInvalidCreditLimit     = "INVALID_CREDIT_LIMIT"
	KindValidation             = "VALIDATION_ERROR"
	KindAccountInactive        = "ACCOUNT_INACTIVE"
	KindCreditLimitExceeded    = "CREDIT_LIMIT_EXCEEDED"
	KindDuplicateAccount       = "DUPLICATE_ACCOUNT"
	KindDuplicate              = "DUPLICATE"
	KindHasActivity            = "HAS_ACTIVITY"
	KindNotFound               = "NOT_FOUND"
	KindConcurrentUpdateFailed = "CONCURRENT_UPDATE_FAILED"
	KindConflict               = "CONFLICT"
	KindInternal               = "INTERNAL"
)

// kinds is ordered most specific first, since several kinds wrap a broader one.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrInvalidDescription, KindInvalidDescription},
	{ErrInvalidCreditLimit, KindInvalidCreditLimit},
	{ErrValidation, KindValidation},
	{ErrAccountInactive, KindAccountInactive},
	{ErrCreditLimitExceeded, KindCreditLimitExceeded},
	{ErrDuplicateAccount, KindDuplicateAccount},
	{ErrDuplicate, KindDuplicate},
	{ErrHasActivity, KindHasActivity},
	{ErrNotFound, KindNotFound},
	{ErrConcurrentUpdateFailed, KindConcurrentUpdateFailed},
	{ErrConflict, KindConflict},
}

// KindOf returns the stable kind name for err, or KindInternal for anything unrecognised.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
