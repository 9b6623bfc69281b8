package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrStockNotFound is returned when no stock matches the requested id
	ErrStockNotFound = errors.New("stock not found")

	// ErrValidation marks input the store refuses to persist
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateTicker is a validation failure on the unique ticker symbol
	ErrDuplicateTicker = fmt.Errorf("%w: ticker symbol already exists", ErrValidation)
)

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStockNotFound)
}

// IsValidation reports whether err is a validation failure, duplicates included
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// isDataException matches postgres class 22 errors (value too long, numeric
// out of range and the like), which are bad input rather than server faults
func isDataException(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == "22"
}
