package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups for entities that were never
// provisioned.
var ErrNotFound = errors.New("not found")

// IntegrityError marks an insert rejected by the schema: a missing
// equipment/sensor reference, a duplicate identifier, or a channel value
// outside the declared envelope. The record is rejected; the caller should
// not retry it unchanged.
type IntegrityError struct {
	Op  string
	Err error
}

func (e *IntegrityError) Error() string { return fmt.Sprintf("%s: integrity violation: %v", e.Op, e.Err) }
func (e *IntegrityError) Unwrap() error { return e.Err }

// TransientStoreError marks a connectivity or timeout failure. The caller
// may retry with backoff; the pipeline itself stays stateless and does not.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string { return fmt.Sprintf("%s: transient store error: %v", e.Op, e.Err) }
func (e *TransientStoreError) Unwrap() error { return e.Err }

// IsIntegrity reports whether err is (or wraps) an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// IsTransient reports whether err is (or wraps) a TransientStoreError.
func IsTransient(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}

// classifyStoreError maps driver-level failures onto the pipeline's error
// taxonomy. Anything unrecognised is surfaced verbatim.
func classifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &IntegrityError{Op: op, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &TransientStoreError{Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"): // integrity constraint violations
			return &IntegrityError{Op: op, Err: err}
		case strings.HasPrefix(pgErr.Code, "08"), // connection exceptions
			pgErr.Code == "55P03", // lock not available
			pgErr.Code == "57014": // statement timeout
			return &TransientStoreError{Op: op, Err: err}
		}
	}

	// SQLite reports every constraint class through the same message shape.
	if strings.Contains(err.Error(), "constraint failed") {
		return &IntegrityError{Op: op, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
