package models

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"
)

// Error kinds surfaced by the gateway. Callers match them with errors.Is.
var (
	ErrNotFound   = errors.New("record not found")
	ErrConstraint = errors.New("constraint violation")
	ErrConnection = errors.New("database unavailable")
)

type dbError struct {
	kind error
	err  error
}

func (e *dbError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *dbError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// Classify maps gorm and driver errors onto the gateway's error kinds.
// Errors that match no kind are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConstraint) || errors.Is(err, ErrConnection) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &dbError{kind: ErrNotFound, err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &dbError{kind: ErrConstraint, err: err}
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return &dbError{kind: ErrConnection, err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &dbError{kind: ErrConnection, err: err}
	}

	// Drivers that gorm cannot translate still report constraint failures in the message.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "constraint failed") || strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "violates unique constraint") || strings.Contains(msg, "violates foreign key constraint") {
		return &dbError{kind: ErrConstraint, err: err}
	}

	return err
}
