package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Rrens/db-assistant/internal/domain"
)

// Classify maps a pgx error to a *domain.BackendError by SQLSTATE.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var be *domain.BackendError
	if errors.As(err, &be) {
		return err
	}
	return &domain.BackendError{Kind: kindOf(err), Err: err}
}

func kindOf(err error) domain.ErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UndefinedTable:
			return domain.KindTableNotFound
		case pgerrcode.UndefinedColumn:
			return domain.KindColumnNotFound
		case pgerrcode.DatatypeMismatch,
			pgerrcode.UndefinedFunction,
			pgerrcode.CannotCoerce,
			pgerrcode.InvalidTextRepresentation:
			return domain.KindTypeMismatch
		case pgerrcode.InvalidDatetimeFormat,
			pgerrcode.DatetimeFieldOverflow:
			return domain.KindInvalidDateTime
		case pgerrcode.InsufficientPrivilege:
			return domain.KindPermissionDenied
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return domain.KindBackendUnavailable
		}
		return domain.KindDatabase
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return domain.KindBackendUnavailable
	}
	return domain.KindDatabase
}
