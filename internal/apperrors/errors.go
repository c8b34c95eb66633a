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

// ErrForbidden indicates that the caller lacks the role required for the action.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates a missing or invalid caller identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrChainDepthExceeded indicates a chain walk still had transactions to
// expand after the configured maximum number of levels.
var ErrChainDepthExceeded = errors.New("chain depth limit exceeded")

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// TransactionNotFoundError names the transaction that could not be found.
type TransactionNotFoundError struct {
	TransactionID string
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.TransactionID)
}

func (e *TransactionNotFoundError) Unwrap() error { return ErrNotFound }

// NewTransactionNotFoundError builds a not-found error for transactionID.
func NewTransactionNotFoundError(transactionID string) error {
	return &TransactionNotFoundError{TransactionID: transactionID}
}

// LocationFileDownloadError reports that the blob store failed while
// reading a transaction's location file.
type LocationFileDownloadError struct {
	TransactionID string
	Path          string
	Err           error
}

func (e *LocationFileDownloadError) Error() string {
	return fmt.Sprintf("failed to download location file %q for transaction %s: %v", e.Path, e.TransactionID, e.Err)
}

func (e *LocationFileDownloadError) Unwrap() error { return e.Err }
