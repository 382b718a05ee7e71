package dao

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

var (
	ErrRaffleNotFound       = errors.New("raffle not found")
	ErrRaffleExists         = errors.New("raffle already exists")
	ErrRoundNotFound        = errors.New("round not found")
	ErrOpenRoundExists      = errors.New("raffle already has an open round")
	ErrRoundClosed          = errors.New("round is not accepting purchases")
	ErrRoundAlreadyResolved = errors.New("round already resolved")
	ErrRoundNotDue          = errors.New("round deadline has not passed")
)

// isUniqueViolation reports whether err is a unique-constraint violation. When constraint
// is not empty only violations of that constraint match.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgerrcode.UniqueViolation {
			return false
		}
		return constraint == "" ||
			pgErr.ConstraintName == constraint ||
			strings.Contains(pgErr.Message, `"`+constraint+`"`)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number != mysqlDuplicateEntry {
			return false
		}
		return constraint == "" || strings.Contains(myErr.Message, constraint)
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}
