package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// translateError maps driver level unique violations onto ErrDuplicate and
// leaves everything else untouched (gorm.ErrRecordNotFound included).
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ilikeEscape is appended to every ILIKE so wildcards in user input match literally.
const ilikeEscape = ` ILIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ilike builds a case-insensitive "contains" pattern for column ILIKE ? ESCAPE '\'.
func ilike(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
