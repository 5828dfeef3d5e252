package executor

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrUniqueConstraint     = errors.New("unique constraint violated")
	ErrForeignKeyConstraint = errors.New("foreign key constraint violated")
	ErrNullConstraint       = errors.New("null constraint violated")
	ErrNoRows               = errors.New("no rows returned")
)

// QueryError reports a failed statement together with the SQL that was sent.
type QueryError struct {
	Operation string
	Model     string
	SQL       string
	Err       error

	kind error
}

func newQueryError(op, model, sql string, err error) *QueryError {
	return &QueryError{
		Operation: op,
		Model:     model,
		SQL:       sql,
		Err:       err,
		kind:      classify(err),
	}
}

func (e *QueryError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s on %s failed: %v", e.Operation, e.Model, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is matches the constraint sentinel derived from the driver error.
func (e *QueryError) Is(target error) bool {
	return e.kind != nil && e.kind == target
}

// classify maps driver errors onto the constraint sentinels.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrUniqueConstraint
		case "23503":
			return ErrForeignKeyConstraint
		case "23502":
			return ErrNullConstraint
		}
		return nil
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return ErrUniqueConstraint
		case 1451, 1452:
			return ErrForeignKeyConstraint
		case 1048:
			return ErrNullConstraint
		}
		return nil
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrUniqueConstraint
		case sqlite3.ErrConstraintForeignKey:
			return ErrForeignKeyConstraint
		case sqlite3.ErrConstraintNotNull:
			return ErrNullConstraint
		}
	}
	return nil
}
