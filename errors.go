package algolinalg

import (
	"errors"
	"fmt"
)

// ErrContract is wrapped by every error that reports a caller contract
// violation (misuse of the API rather than a runtime condition).
// Use errors.Is(err, ErrContract) to separate the two classes.
var ErrContract = errors.New("algolinalg: contract violation")

// Contract violations. They are always returned wrapped together with
// ErrContract.
var (
	// ErrNoOperator is returned by Build when no operator has been set.
	ErrNoOperator = errors.New("algolinalg: no operator set")

	// ErrNotSquare is returned when a square operator is required.
	ErrNotSquare = errors.New("algolinalg: operator is not square")

	// ErrEmptyOperator is returned when the operator has no rows.
	ErrEmptyOperator = errors.New("algolinalg: operator is empty")

	// ErrNotBuilt is returned by Solve before Build or after Clear.
	ErrNotBuilt = errors.New("algolinalg: solver not built")

	// ErrAlreadyBuilt is returned when the operator of a built solver is replaced.
	ErrAlreadyBuilt = errors.New("algolinalg: solver already built")

	// ErrNotFactored is returned by LUSolve before LUFactorize.
	ErrNotFactored = errors.New("algolinalg: operator not factorized")

	// ErrNilVector is returned when a vector argument is nil.
	ErrNilVector = errors.New("algolinalg: nil vector")

	// ErrAliasedVectors is returned when input and output are the same vector.
	ErrAliasedVectors = errors.New("algolinalg: output vector aliases input")

	// ErrDimensionMismatch is returned when operand sizes disagree.
	ErrDimensionMismatch = errors.New("algolinalg: dimension mismatch")

	// ErrResidencyMismatch is returned when operands live on different backends.
	ErrResidencyMismatch = errors.New("algolinalg: operands reside on different backends")
)

// Input and resource errors.
var (
	// ErrInvalidPattern is returned for malformed CSR or COO input.
	ErrInvalidPattern = errors.New("algolinalg: invalid sparsity pattern")

	// ErrBackendUnavailable is returned when an object is moved to an
	// accelerator that its context does not have.
	ErrBackendUnavailable = errors.New("algolinalg: accelerator backend unavailable")

	// ErrNotImplemented is returned for operations an object or backend
	// does not provide.
	ErrNotImplemented = errors.New("algolinalg: not implemented")
)

func violation(kind error) error {
	return fmt.Errorf("%w: %w", ErrContract, kind)
}

func violationf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrContract, kind, fmt.Sprintf(format, args...))
}
