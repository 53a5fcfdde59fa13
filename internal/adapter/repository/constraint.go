package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/johnquangdev/meeting-sync/internal/domain/repositories"
)

// pgUniqueViolation is SQLSTATE unique_violation
const pgUniqueViolation = "23505"

// classifyConflict turns a Postgres unique violation into a typed
// *repositories.ConflictError keyed by constraint name. Other errors are
// returned unchanged.
func classifyConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	return &repositories.ConflictError{
		Kind:       repositories.KindForConstraint(pgErr.ConstraintName),
		Constraint: pgErr.ConstraintName,
		Err:        err,
	}
}
